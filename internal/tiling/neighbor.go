package tiling

import "github.com/1broseidon/tilewm/internal/platform"

// Neighbor returns the index of the rectangle closest to rects[current]
// in the direction (dx, dy), comparing centres by Manhattan distance.
// When nothing lies that way it wraps to the far edge, preferring
// rectangles in line with the current one. It returns current when
// there is no other candidate.
func Neighbor(rects []platform.Rect, current, dx, dy int) int {
	if current < 0 || current >= len(rects) || (dx == 0 && dy == 0) {
		return current
	}
	cx, cy := centre(rects[current])

	best, bestDist := -1, 0
	for i, r := range rects {
		if i == current {
			continue
		}
		x, y := centre(r)
		if (x-cx)*dx+(y-cy)*dy <= 0 {
			continue
		}
		dist := abs(x-cx) + abs(y-cy)
		if best < 0 || dist < bestDist {
			best, bestDist = i, dist
		}
	}
	if best >= 0 {
		return best
	}

	// Wrap: the smallest projection on the direction is the far edge.
	bestProj, bestCross := 0, 0
	for i, r := range rects {
		if i == current {
			continue
		}
		x, y := centre(r)
		proj := x*dx + y*dy
		cross := abs(y - cy)
		if dx == 0 {
			cross = abs(x - cx)
		}
		if best < 0 || proj < bestProj || (proj == bestProj && cross < bestCross) {
			best, bestProj, bestCross = i, proj, cross
		}
	}
	if best >= 0 {
		return best
	}
	return current
}

func centre(r platform.Rect) (int, int) {
	return r.X + r.Width/2, r.Y + r.Height/2
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
