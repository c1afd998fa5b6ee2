package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"auction-sniper/internal/domain"
	"auction-sniper/pkg/color"
	"auction-sniper/pkg/currency"
	"auction-sniper/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newManager(t *testing.T) (*GroupManager, *memRepo, *recordingPublisher) {
	t.Helper()
	repo := newMemRepo()
	pub := &recordingPublisher{}
	return NewGroupManager(repo, pub, &counterIDs{next: 1000}, logger.NewNop()), repo, pub
}

func snipeEntry(id string, end time.Time, lead time.Duration) *domain.SnipeEntry {
	return snipeEntryWithShipping(id, end, lead, currency.Amount{})
}

func snipeEntryWithShipping(id string, end time.Time, lead time.Duration, shipping currency.Amount) *domain.SnipeEntry {
	return domain.NewSnipeEntry(id, "item "+id, end, lead, shipping)
}

func TestCreateGroupPersists(t *testing.T) {
	gm, repo, _ := newManager(t)
	ctx := context.Background()

	g, err := gm.CreateGroup(ctx, color.RGB{R: 1, G: 2, B: 3}, currency.MustParse("USD 25.00"), true)
	require.NoError(t, err)

	assert.Equal(t, int64(1001), g.Identifier())
	assert.NotZero(t, g.ID())

	rec, err := repo.Find(ctx, g.ID())
	require.NoError(t, err)
	assert.Equal(t, "010203", rec.Color)
	assert.Equal(t, "USD 25.00", rec.DefaultBid)
	assert.True(t, rec.SubtractShipping)
	assert.Equal(t, "1001", rec.Identifier)
}

func TestLoadGroupsRehydratesWithoutMembers(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo()
	require.NoError(t, repo.Save(ctx, &domain.Record{Color: "aabbcc", DefaultBid: "USD 5.00", Identifier: "7"}))
	require.NoError(t, repo.Save(ctx, &domain.Record{Color: "bad", DefaultBid: "USD 5.00", Identifier: "8"}))

	gm := NewGroupManager(repo, nil, &counterIDs{}, logger.NewNop())
	n, err := gm.LoadGroups(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	g, err := gm.Group(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "aabbcc", g.ColorString())
	assert.Equal(t, 0, g.Len())
}

func TestGroupLoadsOnMiss(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo()
	require.NoError(t, repo.Save(ctx, &domain.Record{Color: "000000", DefaultBid: "USD 1.00", Identifier: "55"}))

	gm := NewGroupManager(repo, nil, &counterIDs{}, logger.NewNop())
	g1, err := gm.Group(ctx, 55)
	require.NoError(t, err)
	g2, err := gm.Group(ctx, 55)
	require.NoError(t, err)
	assert.Same(t, g1, g2)

	_, err = gm.Group(ctx, 56)
	assert.True(t, errors.Is(err, domain.ErrGroupNotFound))
}

func TestJoinEnforcesSafety(t *testing.T) {
	gm, _, pub := newManager(t)
	ctx := context.Background()
	g, err := gm.CreateGroup(ctx, color.RGB{}, currency.MustParse("USD 10.00"), false)
	require.NoError(t, err)

	a := snipeEntry("a", base.Add(100*time.Second), 20*time.Second)
	require.NoError(t, gm.Join(ctx, g.Identifier(), a))
	assert.Same(t, g, a.Group())

	clash := snipeEntry("b", base.Add(90*time.Second), 5*time.Second)
	err = gm.Join(ctx, g.Identifier(), clash)
	assert.True(t, errors.Is(err, domain.ErrUnsafeSnipe))
	assert.Nil(t, clash.Group())

	// Joining again is a no-op.
	require.NoError(t, gm.Join(ctx, g.Identifier(), a))
	assert.Equal(t, 1, g.Len())

	assert.Equal(t, []domain.GroupEventType{domain.MemberAdded}, pub.types())
}

func TestJoinRejectsEntryFromAnotherGroup(t *testing.T) {
	gm, _, _ := newManager(t)
	ctx := context.Background()
	g1, err := gm.CreateGroup(ctx, color.RGB{}, currency.MustParse("USD 10.00"), false)
	require.NoError(t, err)
	g2, err := gm.CreateGroup(ctx, color.RGB{R: 1}, currency.MustParse("USD 10.00"), false)
	require.NoError(t, err)

	e := snipeEntry("a", base, time.Second)
	require.NoError(t, gm.Join(ctx, g1.Identifier(), e))
	assert.Error(t, gm.Join(ctx, g2.Identifier(), e))
	assert.Equal(t, 0, g2.Len())
}

func TestJoinRejectsSameIDInAnotherGroup(t *testing.T) {
	gm, _, _ := newManager(t)
	ctx := context.Background()
	g1, err := gm.CreateGroup(ctx, color.RGB{}, currency.MustParse("USD 10.00"), false)
	require.NoError(t, err)
	g2, err := gm.CreateGroup(ctx, color.RGB{R: 1}, currency.MustParse("USD 12.00"), false)
	require.NoError(t, err)

	require.NoError(t, gm.Join(ctx, g1.Identifier(), snipeEntry("x", base, time.Second)))

	err = gm.Join(ctx, g2.Identifier(), snipeEntry("x", base, time.Second))
	assert.True(t, errors.Is(err, domain.ErrEntryInGroup))
	assert.Equal(t, 0, g2.Len())

	// Once it has left the first group it may join another.
	require.NoError(t, gm.Leave(ctx, g1.Identifier(), "x"))
	require.NoError(t, gm.Join(ctx, g2.Identifier(), snipeEntry("x", base, time.Second)))
	assert.Equal(t, 1, g2.Len())
}

func TestMember(t *testing.T) {
	gm, _, _ := newManager(t)
	ctx := context.Background()
	g, err := gm.CreateGroup(ctx, color.RGB{}, currency.MustParse("USD 10.00"), false)
	require.NoError(t, err)

	first := snipeEntry("a", base.Add(time.Hour), time.Second)
	require.NoError(t, gm.Join(ctx, g.Identifier(), first))
	require.NoError(t, gm.Join(ctx, g.Identifier(), snipeEntry("a", base, time.Minute)))

	m, err := gm.Member(ctx, g.Identifier(), "a")
	require.NoError(t, err)
	assert.Same(t, first, m)

	_, err = gm.Member(ctx, g.Identifier(), "b")
	assert.True(t, errors.Is(err, domain.ErrEntryNotFound))
}

func TestLeave(t *testing.T) {
	gm, _, _ := newManager(t)
	ctx := context.Background()
	g, err := gm.CreateGroup(ctx, color.RGB{}, currency.MustParse("USD 10.00"), false)
	require.NoError(t, err)

	e := snipeEntry("a", base, time.Second)
	require.NoError(t, gm.Join(ctx, g.Identifier(), e))
	require.NoError(t, gm.Leave(ctx, g.Identifier(), "a"))

	assert.Equal(t, 0, g.Len())
	assert.True(t, e.Cancelled())
	assert.True(t, errors.Is(gm.Leave(ctx, g.Identifier(), "a"), domain.ErrEntryNotFound))
}

func TestMarkWonCancelsEveryMember(t *testing.T) {
	gm, _, pub := newManager(t)
	ctx := context.Background()
	g, err := gm.CreateGroup(ctx, color.RGB{}, currency.MustParse("USD 10.00"), false)
	require.NoError(t, err)

	entries := []*domain.SnipeEntry{
		snipeEntry("a", base.Add(1*time.Hour), time.Second),
		snipeEntry("b", base.Add(2*time.Hour), time.Second),
		snipeEntry("c", base.Add(3*time.Hour), time.Second),
	}
	for _, e := range entries {
		require.NoError(t, gm.Join(ctx, g.Identifier(), e))
	}

	n, err := gm.MarkWon(ctx, g.Identifier())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, 0, g.Len())
	for _, e := range entries {
		assert.True(t, e.Cancelled())
	}
	assert.Contains(t, pub.types(), domain.GroupWon)
}

func TestUpdateGroupPersistsSettings(t *testing.T) {
	gm, repo, pub := newManager(t)
	ctx := context.Background()
	g, err := gm.CreateGroup(ctx, color.RGB{}, currency.MustParse("USD 10.00"), false)
	require.NoError(t, err)

	bid := currency.MustParse("USD 15.00")
	on := true
	_, err = gm.UpdateGroup(ctx, g.Identifier(), GroupUpdate{
		Color:            &color.RGB{R: 0xab},
		DefaultBid:       &bid,
		SubtractShipping: &on,
	})
	require.NoError(t, err)

	rec, err := repo.Find(ctx, g.ID())
	require.NoError(t, err)
	assert.Equal(t, "ab0000", rec.Color)
	assert.Equal(t, "USD 15.00", rec.DefaultBid)
	assert.True(t, rec.SubtractShipping)
	assert.Equal(t, "1001", rec.Identifier)
	assert.Contains(t, pub.types(), domain.GroupUpdated)

	// Untouched fields keep their values.
	_, err = gm.UpdateGroup(ctx, g.Identifier(), GroupUpdate{})
	require.NoError(t, err)
	rec, err = repo.Find(ctx, g.ID())
	require.NoError(t, err)
	assert.Equal(t, "USD 15.00", rec.DefaultBid)

	_, err = gm.UpdateGroup(ctx, 4242, GroupUpdate{})
	assert.True(t, errors.Is(err, domain.ErrGroupNotFound))
}

func TestDeleteGroup(t *testing.T) {
	gm, repo, _ := newManager(t)
	ctx := context.Background()
	g, err := gm.CreateGroup(ctx, color.RGB{}, currency.MustParse("USD 10.00"), false)
	require.NoError(t, err)
	e := snipeEntry("a", base, time.Second)
	require.NoError(t, gm.Join(ctx, g.Identifier(), e))

	require.NoError(t, gm.DeleteGroup(ctx, g.Identifier()))

	assert.True(t, e.Cancelled())
	_, err = repo.Find(ctx, g.ID())
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	_, err = gm.Group(ctx, g.Identifier())
	assert.True(t, errors.Is(err, domain.ErrGroupNotFound))
}

func TestFindPassThroughs(t *testing.T) {
	gm, _, _ := newManager(t)
	ctx := context.Background()
	g, err := gm.CreateGroup(ctx, color.RGB{R: 0xff}, currency.MustParse("USD 10.00"), false)
	require.NoError(t, err)

	rec, err := gm.FindByField(ctx, "color", "ff0000")
	require.NoError(t, err)
	assert.Equal(t, g.ID(), rec.ID)

	rec, err = gm.FindByRowID(ctx, g.ID())
	require.NoError(t, err)
	assert.Equal(t, "1001", rec.Identifier)

	_, err = gm.FindByRowID(ctx, 999)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}
