package domain

// Badge is the label shown next to authors with enough likes.
type Badge struct {
	Label string
	Color string
}

// BadgeFor returns the badge for an all-time like total, if any.
func BadgeFor(totalLikes int) (Badge, bool) {
	switch {
	case totalLikes >= 100:
		return Badge{Label: "100+", Color: "#9333EA"}, true
	case totalLikes >= 50:
		return Badge{Label: "50", Color: "#2563EB"}, true
	case totalLikes >= 10:
		return Badge{Label: "10", Color: "#EAB308"}, true
	}
	return Badge{}, false
}
