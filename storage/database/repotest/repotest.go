// Package repotest holds the behavior every repository implementation shares.
package repotest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carbonschool/dashboard/core/account"
	"github.com/carbonschool/dashboard/core/energy"
	"github.com/carbonschool/dashboard/core/school"
	"github.com/carbonschool/dashboard/storage/document"
	testutil "github.com/carbonschool/dashboard/tests"
)

func Accounts(t *testing.T, repo account.Repository) {
	ctx := context.Background()
	created := time.Date(2025, time.March, 2, 9, 0, 0, 0, time.UTC)
	acc := testutil.CreateAccount(t, repo, "hanbit", "한빛초", "hanbit@sen.go.kr", "Hanbit-2025!", false, true, created)

	assert.Equal(t, "hanbit", acc.ID)
	assert.True(t, acc.LastLogin.IsZero())
	assert.NoError(t, acc.CheckPassword("Hanbit-2025!"))

	t.Run("create existing", func(t *testing.T) {
		_, err := repo.CreateAccount(ctx, account.Account{ID: "hanbit", Email: "other@sen.go.kr", CreatedAt: created, UpdatedAt: created})
		assert.Equal(t, account.ErrExists, err)
		_, err = repo.CreateAccount(ctx, account.Account{ID: "other", Email: "hanbit@sen.go.kr", CreatedAt: created, UpdatedAt: created})
		assert.Equal(t, account.ErrExists, err)
	})

	t.Run("get", func(t *testing.T) {
		got, err := repo.GetAccountByID(ctx, "hanbit")
		require.NoError(t, err)
		assert.Equal(t, acc, got)

		got, err = repo.GetAccountByEmail(ctx, "hanbit@sen.go.kr")
		require.NoError(t, err)
		assert.Equal(t, acc, got)

		_, err = repo.GetAccountByID(ctx, "nobody")
		assert.Equal(t, account.ErrNotFound, err)
		_, err = repo.GetAccountByEmail(ctx, "nobody@sen.go.kr")
		assert.Equal(t, account.ErrNotFound, err)
	})

	t.Run("update", func(t *testing.T) {
		upd := acc
		upd.Name = "한빛초등학교"
		upd.District = "강남"
		upd.IsActive = false
		upd.LastLogin = created.Add(time.Hour)
		upd.UpdatedAt = created.Add(time.Hour)
		upd.CreatedAt = created.Add(48 * time.Hour) // ignored

		got, err := repo.UpdateAccount(ctx, upd)
		require.NoError(t, err)
		assert.Equal(t, "한빛초등학교", got.Name)
		assert.Equal(t, "강남", got.District)
		assert.False(t, got.IsActive)
		assert.Equal(t, created, got.CreatedAt)
		assert.Equal(t, created.Add(time.Hour), got.LastLogin)
		assert.Equal(t, acc.PasswordHash, got.PasswordHash)

		_, err = repo.UpdateAccount(ctx, account.Account{ID: "nobody"})
		assert.Equal(t, account.ErrNotFound, err)
	})
}

func Schools(t *testing.T, repo school.Repository) {
	ctx := context.Background()

	_, err := repo.GetDocument(ctx, "hanbit")
	assert.Equal(t, school.ErrNotFound, err)

	docs, err := repo.ListDocuments(ctx)
	require.NoError(t, err)
	assert.Empty(t, docs)

	doc, err := repo.MergeDocument(ctx, "hanbit", document.Doc{
		"name":      "한빛초",
		"basic":     map[string]interface{}{"students": 300, "checklist": map[string]interface{}{"planDoc": true}},
		"updatedAt": document.ServerTimestamp(),
	})
	require.NoError(t, err)
	assert.Equal(t, 300.0, doc["basic"].(map[string]interface{})["students"])
	stamp, ok := doc.String("updatedAt")
	require.True(t, ok)
	_, err = time.Parse(document.TimestampLayout, stamp)
	assert.NoError(t, err)

	doc, err = repo.MergeDocument(ctx, "hanbit", document.Doc{
		"basic.checklist.board":   true,
		"basic.checklist.planDoc": document.Delete(),
	})
	require.NoError(t, err)

	got, err := repo.GetDocument(ctx, "hanbit")
	require.NoError(t, err)
	assert.Equal(t, doc, got)
	assert.Equal(t, map[string]interface{}{"board": true}, got["basic"].(map[string]interface{})["checklist"])
	n, ok := got.Number("basic.students")
	assert.True(t, ok)
	assert.Equal(t, 300.0, n)

	_, err = repo.MergeDocument(ctx, "saebit", document.Doc{"district": "강남"})
	require.NoError(t, err)

	docs, err = repo.ListDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "hanbit", docs[0].ID)
	assert.Equal(t, "saebit", docs[1].ID)
	assert.Equal(t, document.Doc{"district": "강남"}, docs[1].Doc)

	t.Run("concurrent merges", func(t *testing.T) {
		var wg sync.WaitGroup
		keys := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
		for _, k := range keys {
			wg.Add(1)
			go func(k string) {
				defer wg.Done()
				_, err := repo.MergeDocument(ctx, "busy", document.Doc{"flags." + k: true})
				assert.NoError(t, err)
			}(k)
		}
		wg.Wait()

		got, err := repo.GetDocument(ctx, "busy")
		require.NoError(t, err)
		assert.Len(t, got["flags"], len(keys))
	})

	t.Run("concurrent first saves", func(t *testing.T) {
		patches := []document.Doc{
			{"basic.students": 480, "basic.checklist.board": true},
			{"bce.culture_checks.student_club": true},
			{"name": "오류중학교"},
		}
		var wg sync.WaitGroup
		for _, p := range patches {
			wg.Add(1)
			go func(p document.Doc) {
				defer wg.Done()
				_, err := repo.MergeDocument(ctx, "오류중학교", p)
				assert.NoError(t, err)
			}(p)
		}
		wg.Wait()

		got, err := repo.GetDocument(ctx, "오류중학교")
		require.NoError(t, err)
		assert.True(t, got.Truthy("basic.checklist.board"))
		assert.True(t, got.Truthy("bce.culture_checks.student_club"))
		name, _ := got.String("name")
		assert.Equal(t, "오류중학교", name)
	})
}

func Energy(t *testing.T, repo energy.Repository) {
	ctx := context.Background()
	m := func(id string, metric energy.Metric, y, mo int, v float64) energy.MonthlyReading {
		return energy.MonthlyReading{SchoolID: id, Metric: metric, Year: y, Month: mo, Value: v}
	}

	require.NoError(t, repo.UpsertMonthly(ctx, []energy.MonthlyReading{
		m("hanbit", energy.Electric, 2024, 12, 10),
		m("hanbit", energy.Electric, 2025, 1, 20),
		m("hanbit", energy.Electric, 2025, 2, 30),
		m("saebit", energy.Electric, 2025, 1, 40),
		m("hanbit", energy.Gas, 2025, 1, 50),
	}))
	require.NoError(t, repo.UpsertMonthly(ctx, []energy.MonthlyReading{m("hanbit", energy.Electric, 2025, 1, 25)}))

	got, err := repo.ListMonthly(ctx, energy.Electric, energy.YearMonth{Year: 2024, Month: 12}, energy.YearMonth{Year: 2025, Month: 1})
	require.NoError(t, err)
	assert.Equal(t, []energy.MonthlyReading{
		m("hanbit", energy.Electric, 2024, 12, 10),
		m("hanbit", energy.Electric, 2025, 1, 25),
		m("saebit", energy.Electric, 2025, 1, 40),
	}, got)

	got, err = repo.ListMonthly(ctx, energy.Electric, energy.YearMonth{Year: 2025, Month: 1}, energy.YearMonth{Year: 2025, Month: 12}, "hanbit")
	require.NoError(t, err)
	assert.Equal(t, []energy.MonthlyReading{
		m("hanbit", energy.Electric, 2025, 1, 25),
		m("hanbit", energy.Electric, 2025, 2, 30),
	}, got)

	got, err = repo.ListMonthly(ctx, energy.Water, energy.YearMonth{Year: 2025, Month: 1}, energy.YearMonth{Year: 2025, Month: 12})
	require.NoError(t, err)
	assert.Empty(t, got)

	h := func(hour int, v float64) energy.HourlyReading {
		return energy.HourlyReading{SchoolID: "hanbit", Metric: energy.Electric, Day: "2025-05-14", Hour: hour, Value: v}
	}
	require.NoError(t, repo.UpsertHourly(ctx, []energy.HourlyReading{h(9, 1), h(7, 2), h(9, 3)}))

	hours, err := repo.ListHourly(ctx, "hanbit", energy.Electric, "2025-05-14")
	require.NoError(t, err)
	assert.Equal(t, []energy.HourlyReading{h(7, 2), h(9, 3)}, hours)

	hours, err = repo.ListHourly(ctx, "hanbit", energy.Electric, "2025-05-15")
	require.NoError(t, err)
	assert.Empty(t, hours)
}
