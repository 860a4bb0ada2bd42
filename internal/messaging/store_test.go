package messaging

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	pgxmock "github.com/pashagolub/pgxmock/v3"
)

func TestInsertInboundDedup(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()
	store := &PostgresStore{pool: mock}
	leadID := uuid.NewString()

	mock.ExpectExec("INSERT INTO messages").
		WithArgs(pgxmock.AnyArg(), leadID, DirectionInbound, "hola", "", StatusReceived, "wamid.1").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	inserted, err := store.InsertInbound(context.Background(), MessageRecord{
		LeadID:            leadID,
		Body:              "hola",
		ProviderMessageID: "wamid.1",
	})
	if err != nil {
		t.Fatalf("insert inbound: %v", err)
	}
	if !inserted {
		t.Fatal("expected first delivery to insert")
	}

	// Redelivery of the same provider id hits ON CONFLICT DO NOTHING.
	mock.ExpectExec("INSERT INTO messages").
		WithArgs(pgxmock.AnyArg(), leadID, DirectionInbound, "hola", "", StatusReceived, "wamid.1").
		WillReturnResult(pgxmock.NewResult("INSERT", 0))
	inserted, err = store.InsertInbound(context.Background(), MessageRecord{
		LeadID:            leadID,
		Body:              "hola",
		ProviderMessageID: "wamid.1",
	})
	if err != nil {
		t.Fatalf("insert inbound redelivery: %v", err)
	}
	if inserted {
		t.Fatal("duplicate provider message id must be a no-op")
	}
}

func TestInsertInboundRequiresProviderID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()
	store := &PostgresStore{pool: mock}

	if _, err := store.InsertInbound(context.Background(), MessageRecord{LeadID: "x", Body: "hola"}); err == nil {
		t.Fatal("expected error for missing provider message id")
	}
}

func TestInsertOutbound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()
	store := &PostgresStore{pool: mock}
	leadID := uuid.NewString()
	msgID := uuid.NewString()

	mock.ExpectQuery("INSERT INTO messages").
		WithArgs(pgxmock.AnyArg(), leadID, DirectionOutbound, "menu", "", StatusFailed, "").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(msgID))

	id, err := store.InsertOutbound(context.Background(), MessageRecord{
		LeadID: leadID,
		Body:   "menu",
		Status: StatusFailed,
	})
	if err != nil {
		t.Fatalf("insert outbound: %v", err)
	}
	if id != msgID {
		t.Fatalf("unexpected id %s", id)
	}
}

func TestInsertSystem(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()
	store := &PostgresStore{pool: mock}
	leadID := uuid.NewString()

	mock.ExpectExec("INSERT INTO messages").
		WithArgs(pgxmock.AnyArg(), leadID, DirectionSystem, "bot reactivado", StatusSent).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	if err := store.InsertSystem(context.Background(), leadID, "bot reactivado"); err != nil {
		t.Fatalf("insert system: %v", err)
	}
}

func TestUpdateStatusByProviderID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()
	store := &PostgresStore{pool: mock}
	now := time.Now()

	mock.ExpectExec("UPDATE messages").
		WithArgs("wamid.9", StatusDelivered, now).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	if err := store.UpdateStatusByProviderID(context.Background(), "wamid.9", StatusDelivered, now); err != nil {
		t.Fatalf("update status: %v", err)
	}

	// Blank provider id is ignored.
	if err := store.UpdateStatusByProviderID(context.Background(), "  ", StatusDelivered, now); err != nil {
		t.Fatalf("blank provider id: %v", err)
	}
}
