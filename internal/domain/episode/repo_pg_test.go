package episode

import (
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
)

type rowFunc func(dest ...any) error

func (f rowFunc) Scan(dest ...any) error { return f(dest...) }

func TestScanEpisode_MatchesColumns(t *testing.T) {
	cols := strings.Split(episodeCols, ", ")
	start := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

	var row pgx.Row = rowFunc(func(dest ...any) error {
		if len(dest) != len(cols) {
			t.Fatalf("scan targets %d, columns %d", len(dest), len(cols))
		}
		*dest[0].(*int64) = 3
		*dest[1].(*time.Time) = start
		*dest[3].(*int16) = 2
		concept := int64(4)
		*dest[4].(**int64) = &concept
		*dest[5].(*int64) = 10
		return nil
	})

	ep, err := scanEpisode(row)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ep.ID != 3 || !ep.StartDate.Equal(start) || ep.State != 2 || ep.EncounterID != 10 {
		t.Errorf("unexpected episode: %+v", ep)
	}
	if ep.ConceptID == nil || *ep.ConceptID != 4 || !ep.IsOpen() {
		t.Errorf("unexpected optional fields: %+v", ep)
	}
}
