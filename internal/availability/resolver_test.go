package availability

import (
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

// monday is a fixed Monday used across tests; now is well before it
// so same-day filtering does not interfere unless a test wants it to.
var (
    monday = time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
    before = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
)

func TestResolveFullOpenDay(t *testing.T) {
    slots, err := Resolve(Input{
        Day:   monday,
        Now:   before,
        Hours: Window{Open: 8, Close: 18},
    })
    require.NoError(t, err)
    require.Len(t, slots, 10)
    assert.Equal(t, 8, slots[0].Hour)
    assert.Equal(t, 17, slots[len(slots)-1].Hour)
    assert.Equal(t, monday.Add(8*time.Hour), slots[0].Start)
}

func TestResolveClosedDay(t *testing.T) {
    slots, err := Resolve(Input{
        Day:   monday,
        Now:   before,
        Hours: Window{Open: 8, Close: 18, Closed: true},
    })
    require.NoError(t, err)
    assert.Empty(t, slots)
}

func TestResolveUnconfiguredDay(t *testing.T) {
    // A weekday with no business-hours row resolves as closed.
    slots, err := Resolve(Input{Day: monday, Now: before})
    require.NoError(t, err)
    assert.Empty(t, slots)
}

func TestResolvePastDate(t *testing.T) {
    _, err := Resolve(Input{
        Day:   monday,
        Now:   monday.Add(26 * time.Hour),
        Hours: Window{Open: 8, Close: 18},
    })
    assert.ErrorIs(t, err, ErrPastDate)
}

func TestResolveSubtractsBookedHours(t *testing.T) {
    slots, err := Resolve(Input{
        Day:    monday,
        Now:    before,
        Hours:  Window{Open: 8, Close: 12},
        Booked: map[int]bool{9: true, 11: true},
    })
    require.NoError(t, err)
    hours := hoursOf(slots)
    assert.Equal(t, []int{8, 10}, hours)
}

func TestResolveOverrideTakesPrecedence(t *testing.T) {
    closure := Window{Closed: true}
    slots, err := Resolve(Input{
        Day:      monday,
        Now:      before,
        Hours:    Window{Open: 8, Close: 18},
        Override: &closure,
    })
    require.NoError(t, err)
    assert.Empty(t, slots, "holiday closure must win over standing hours")

    shortened := Window{Open: 10, Close: 13}
    slots, err = Resolve(Input{
        Day:      monday,
        Now:      before,
        Hours:    Window{Open: 8, Close: 18},
        Override: &shortened,
    })
    require.NoError(t, err)
    assert.Equal(t, []int{10, 11, 12}, hoursOf(slots))
}

func TestResolveCoachIntersection(t *testing.T) {
    slots, err := Resolve(Input{
        Day:   monday,
        Now:   before,
        Hours: Window{Open: 8, Close: 18},
        Coach: []Window{{Open: 14, Close: 17}},
    })
    require.NoError(t, err)
    assert.Equal(t, []int{14, 15, 16}, hoursOf(slots))
}

func TestResolveCoachNotWorkingThatDay(t *testing.T) {
    slots, err := Resolve(Input{
        Day:   monday,
        Now:   before,
        Hours: Window{Open: 8, Close: 18},
        Coach: []Window{},
    })
    require.NoError(t, err)
    assert.Empty(t, slots)
}

func TestResolveSameDayDropsElapsedSlots(t *testing.T) {
    slots, err := Resolve(Input{
        Day:   monday,
        Now:   monday.Add(10*time.Hour + 30*time.Minute), // 10:30 that day
        Hours: Window{Open: 8, Close: 13},
    })
    require.NoError(t, err)
    assert.Equal(t, []int{11, 12}, hoursOf(slots))
}

func TestWindowValid(t *testing.T) {
    assert.True(t, Window{Open: 8, Close: 18}.Valid())
    assert.True(t, Window{Open: 0, Close: 24}.Valid())
    assert.False(t, Window{Open: 18, Close: 8}.Valid(), "overnight windows are out of scope")
    assert.False(t, Window{Open: 10, Close: 10}.Valid())
    assert.False(t, Window{Open: -1, Close: 5}.Valid())
}

func TestCoversRange(t *testing.T) {
    slots := []Slot{{Hour: 10}, {Hour: 11}, {Hour: 13}}
    assert.True(t, CoversRange(slots, 10, 12))
    assert.False(t, CoversRange(slots, 10, 14), "gap at 12 breaks the range")
    assert.False(t, CoversRange(slots, 12, 12), "empty range is never covered")
}

func hoursOf(slots []Slot) []int {
    out := make([]int, 0, len(slots))
    for _, s := range slots {
        out = append(out, s.Hour)
    }
    return out
}
