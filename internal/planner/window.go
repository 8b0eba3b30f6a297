package planner

// Window computes the from/size pair for skip/take under the result window
// ceiling. The returned from is nil when no skip was requested. The
// requested window from+size never exceeds ceiling and size is never
// negative. A skip past the ceiling is cut to the ceiling, which plans an
// empty page. clamped reports whether skip or take was cut.
//
//	skip   take   from   size
//	nil    nil    nil    ceiling
//	s      nil    s      ceiling-s
//	nil    t      nil    min(t, ceiling)
//	s      t      s      t, or ceiling-s when s+t > ceiling
//	s>c    any    c      0
func Window(skip, take *int, ceiling int) (from *int, size int, clamped bool) {
	s := 0
	if skip != nil {
		s = max(*skip, 0)
		if s > ceiling {
			s = ceiling
			clamped = true
		}
		from = &s
	}

	size = ceiling - s
	if take != nil {
		t := max(*take, 0)
		if s+t > ceiling {
			clamped = true
		} else {
			size = t
		}
	}
	if size < 0 {
		size = 0
	}
	return from, size, clamped
}
