package domain

// IsSafePair reports whether a and b can share a group. They cannot when
// they end at the same instant, or when the one that ends first closes
// inside the other's firing window (between its fire time and its end).
func IsSafePair(a, b AuctionEntry) bool {
	end1, end2 := a.EndTime(), b.EndTime()
	snipe1 := end1.Add(-a.SnipeLeadTime())
	snipe2 := end2.Add(-b.SnipeLeadTime())

	return !(end1.Equal(end2) ||
		(end1.Before(end2) && !end1.Before(snipe2)) ||
		(end2.Before(end1) && !end2.Before(snipe1)))
}
