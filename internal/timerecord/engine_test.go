package timerecord_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"rocketcoins/internal/domain"
	"rocketcoins/internal/testutil"
	"rocketcoins/internal/timerecord"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clock is a manual clock for deterministic entry and exit times.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func setup(t *testing.T) (*timerecord.Engine, *clock, *domain.User, *domain.User) {
	t.Helper()
	gdb := testutil.NewDB(t)
	log, _ := testutil.NewLogger()
	clk := &clock{now: time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)}
	engine := timerecord.NewEngine(gdb, log).WithClock(clk.Now)
	member := testutil.CreateUser(t, gdb, "member", domain.RoleMember)
	other := testutil.CreateUser(t, gdb, "other", domain.RoleMember)
	return engine, clk, member, other
}

func TestRecordPoint_Scenario(t *testing.T) {
	engine, clk, member, _ := setup(t)
	ctx := context.Background()

	opened, err := engine.RecordPoint(ctx, member.ID, "")
	require.NoError(t, err)
	assert.Equal(t, domain.PointInProgress, opened.Status)
	assert.Nil(t, opened.ExitAt)
	assert.Nil(t, opened.WorkingHours)
	require.NotNil(t, opened.User)
	assert.Equal(t, "member", opened.User.Name)

	clk.Advance(8*time.Hour + 30*time.Minute)

	_, err = engine.RecordPoint(ctx, member.ID, "   ")
	assert.ErrorIs(t, err, domain.ErrValidation)

	status, err := engine.Status(ctx, member.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StateWorking, status.State, "failed clock-out leaves the record open")

	closed, err := engine.RecordPoint(ctx, member.ID, " shipped the release ")
	require.NoError(t, err)
	assert.Equal(t, opened.ID, closed.ID)
	assert.Equal(t, domain.PointApproved, closed.Status)
	require.NotNil(t, closed.ExitAt)
	require.NotNil(t, closed.Description)
	assert.Equal(t, "shipped the release", *closed.Description)
	require.NotNil(t, closed.WorkingHours)
	assert.Equal(t, int64(8), closed.WorkingHours.Hours)
	assert.Equal(t, int64(30), closed.WorkingHours.Minutes)
	assert.True(t, decimal.RequireFromString("8.5").Equal(closed.WorkingHours.TotalHours))

	status, err = engine.Status(ctx, member.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StateNotWorking, status.State)
	require.NotNil(t, status.LastRecord)
	assert.Equal(t, closed.ID, status.LastRecord.ID)
}

func TestRecordPoint_TogglesIntoNewRecord(t *testing.T) {
	engine, clk, member, _ := setup(t)
	ctx := context.Background()

	first, err := engine.RecordPoint(ctx, member.ID, "")
	require.NoError(t, err)
	clk.Advance(time.Hour)
	_, err = engine.RecordPoint(ctx, member.ID, "morning")
	require.NoError(t, err)
	clk.Advance(time.Hour)

	second, err := engine.RecordPoint(ctx, member.ID, "ignored on clock-in")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, domain.PointInProgress, second.Status)
	assert.Nil(t, second.Description)
}

func TestRecordPoint_UnknownUser(t *testing.T) {
	engine, _, _, _ := setup(t)

	_, err := engine.RecordPoint(context.Background(), 9999, "")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestRecordPoint_ConcurrentClockInOpensOneRecord(t *testing.T) {
	engine, _, member, _ := setup(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for n := 0; n < 4; n++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = engine.RecordPoint(ctx, member.ID, "")
		}()
	}
	wg.Wait()

	page, err := engine.ListByUser(ctx, member.ID, domain.NewPage(1, 10, 10))
	require.NoError(t, err)
	// Opens and closes alternate; the clock-outs without a description fail,
	// so exactly one record exists and it is open.
	assert.Equal(t, int64(1), page.Summary.TotalRecords)
	assert.Equal(t, int64(1), page.Summary.RecordsInProgress)
}

func TestStatus_NoRecords(t *testing.T) {
	engine, _, member, _ := setup(t)

	status, err := engine.Status(context.Background(), member.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StateNoRecords, status.State)
	assert.Nil(t, status.LastRecord)
}

func TestListByUser_NewestFirstWithSummary(t *testing.T) {
	engine, clk, member, other := setup(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := engine.RecordPoint(ctx, member.ID, "")
		require.NoError(t, err)
		clk.Advance(time.Hour)
		if i < 2 {
			_, err = engine.RecordPoint(ctx, member.ID, "done")
			require.NoError(t, err)
			clk.Advance(time.Hour)
		}
	}
	_, err := engine.RecordPoint(ctx, other.ID, "")
	require.NoError(t, err)

	page, err := engine.ListByUser(ctx, member.ID, domain.NewPage(1, 2, 10))
	require.NoError(t, err)

	require.Len(t, page.Records, 2)
	assert.Equal(t, domain.PointInProgress, page.Records[0].Status)
	assert.True(t, page.Records[0].EntryAt.After(page.Records[1].EntryAt))
	assert.Equal(t, int64(3), page.Summary.TotalRecords)
	assert.Equal(t, int64(1), page.Summary.RecordsInProgress)
	assert.Equal(t, int64(2), page.Summary.RecordsApproved)
	assert.Equal(t, 2, page.Pagination.TotalPages)
	assert.True(t, page.Pagination.HasNextPage)
	assert.False(t, page.Pagination.HasPrevPage)
	for _, r := range page.Records {
		require.NotNil(t, r.User)
		assert.Equal(t, member.ID, r.User.ID)
	}

	_, err = engine.ListByUser(ctx, 9999, domain.NewPage(1, 10, 10))
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestListAll_IncludesEveryUser(t *testing.T) {
	engine, clk, member, other := setup(t)
	ctx := context.Background()

	_, err := engine.RecordPoint(ctx, member.ID, "")
	require.NoError(t, err)
	clk.Advance(time.Minute)
	_, err = engine.RecordPoint(ctx, other.ID, "")
	require.NoError(t, err)

	page, err := engine.ListAll(ctx, domain.NewPage(1, 10, 10))
	require.NoError(t, err)
	require.Len(t, page.Records, 2)
	assert.Nil(t, page.Summary)
	assert.Equal(t, other.ID, page.Records[0].UserID)
	require.NotNil(t, page.Records[0].User)
	assert.Equal(t, "other", page.Records[0].User.Name)
	assert.Equal(t, int64(2), page.Pagination.TotalItems)
}

func TestGetAndLast(t *testing.T) {
	engine, clk, member, other := setup(t)
	ctx := context.Background()

	_, err := engine.Last(ctx, member.ID)
	assert.ErrorIs(t, err, domain.ErrRecordNotFound)

	rec, err := engine.RecordPoint(ctx, member.ID, "")
	require.NoError(t, err)
	clk.Advance(time.Minute)

	got, err := engine.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.ID)
	require.NotNil(t, got.User)
	assert.Equal(t, member.Email, got.User.Email)

	last, err := engine.Last(ctx, member.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, last.ID)

	_, err = engine.Last(ctx, other.ID)
	assert.ErrorIs(t, err, domain.ErrRecordNotFound)
	_, err = engine.Get(ctx, 424242)
	assert.ErrorIs(t, err, domain.ErrRecordNotFound)
}

func TestClose_ByDirector(t *testing.T) {
	engine, clk, member, _ := setup(t)
	ctx := context.Background()

	rec, err := engine.RecordPoint(ctx, member.ID, "")
	require.NoError(t, err)
	clk.Advance(2*time.Hour + 15*time.Minute)

	closed, err := engine.Close(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PointApproved, closed.Status)
	require.NotNil(t, closed.Description)
	assert.Equal(t, timerecord.DirectorCloseNote, *closed.Description)
	require.NotNil(t, closed.WorkingHours)
	assert.Equal(t, int64(2), closed.WorkingHours.Hours)
	assert.Equal(t, int64(15), closed.WorkingHours.Minutes)
	assert.True(t, decimal.RequireFromString("2.25").Equal(closed.WorkingHours.TotalHours))

	_, err = engine.Close(ctx, rec.ID)
	assert.ErrorIs(t, err, domain.ErrRecordAlreadyClosed)
	_, err = engine.Close(ctx, 424242)
	assert.ErrorIs(t, err, domain.ErrRecordNotFound)

	status, err := engine.Status(ctx, member.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StateNotWorking, status.State)
}
