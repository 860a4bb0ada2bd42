package campaigns

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v3"
)

func campaignRows() *pgxmock.Rows {
	return pgxmock.NewRows([]string{
		"id", "name", "message_template", "media_url", "target_groups",
		"current_group_index", "send_interval_days", "last_sent_at", "sent_count", "is_active",
		"created_at", "updated_at",
	})
}

func addCampaignRow(rows *pgxmock.Rows, id, name string, groups []string, index int) *pgxmock.Rows {
	now := time.Now()
	return rows.AddRow(
		id, name, "Hola {nombre}", "", groups,
		index, 3, (*time.Time)(nil), 0, true,
		now, now,
	)
}

func TestListActive(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()
	store := &PostgresStore{pool: mock}

	rows := campaignRows()
	addCampaignRow(rows, uuid.NewString(), "invierno", []string{"g1", "g2"}, 0)
	addCampaignRow(rows, uuid.NewString(), "promos", []string{"g3"}, 1)
	mock.ExpectQuery("SELECT id, name").WillReturnRows(rows)

	list, err := store.ListActive(context.Background())
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 campaigns, got %d", len(list))
	}
	if list[0].Name != "invierno" || len(list[0].TargetGroups) != 2 {
		t.Fatalf("unexpected campaign: %+v", list[0])
	}
}

func TestGetByIDNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()
	store := &PostgresStore{pool: mock}

	id := uuid.NewString()
	mock.ExpectQuery("SELECT id, name").WithArgs(id).WillReturnError(pgx.ErrNoRows)

	if _, err := store.GetByID(context.Background(), id); err != ErrCampaignNotFound {
		t.Fatalf("expected ErrCampaignNotFound, got %v", err)
	}
}

func TestListGroupMembers(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()
	store := &PostgresStore{pool: mock}

	rows := pgxmock.NewRows([]string{"id", "wa_id", "name"}).
		AddRow(uuid.NewString(), "5215550001111", "Ana").
		AddRow(uuid.NewString(), "5215550002222", "")
	mock.ExpectQuery("SELECT l.id, l.wa_id, l.name").
		WithArgs("g1").
		WillReturnRows(rows)

	members, err := store.ListGroupMembers(context.Background(), "g1")
	if err != nil {
		t.Fatalf("list members: %v", err)
	}
	if len(members) != 2 || members[0].Name != "Ana" {
		t.Fatalf("unexpected members: %+v", members)
	}
}

func TestCursorUpdates(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()
	store := &PostgresStore{pool: mock}

	id := uuid.NewString()
	sentAt := time.Now()

	mock.ExpectExec("UPDATE campaigns").
		WithArgs(id, 2, sentAt, 14).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	if err := store.AdvanceCursor(context.Background(), id, 2, sentAt, 14); err != nil {
		t.Fatalf("advance cursor: %v", err)
	}

	mock.ExpectExec("UPDATE campaigns").
		WithArgs(id, 3).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	if err := store.AdvanceEmpty(context.Background(), id, 3); err != nil {
		t.Fatalf("advance empty: %v", err)
	}

	mock.ExpectExec("UPDATE campaigns").
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	if err := store.Deactivate(context.Background(), id); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
}
