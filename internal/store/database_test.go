package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"smartpro-bot/internal/db"
)

func newMockUsage(t *testing.T) (*UsageStore, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	return NewUsageStore(&db.DB{DB: sqlDB}), mock
}

func TestRecordRequestUpserts(t *testing.T) {
	us, mock := newMockUsage(t)
	mock.ExpectExec(`(?s)INSERT INTO chat_usage .* ON CONFLICT \(chat_id\)`).
		WithArgs(int64(42), int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := us.RecordRequest(context.Background(), 42, 7); err != nil {
		t.Fatal(err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestRecordRequestWrapsErrors(t *testing.T) {
	us, mock := newMockUsage(t)
	boom := errors.New("connection reset")
	mock.ExpectExec(`INSERT INTO chat_usage`).WillReturnError(boom)

	if err := us.RecordRequest(context.Background(), 1, 2); !errors.Is(err, boom) {
		t.Errorf("err = %v", err)
	}
}

func TestRequests(t *testing.T) {
	us, mock := newMockUsage(t)
	mock.ExpectQuery(`SELECT requests FROM chat_usage`).
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"requests"}).AddRow(3))
	mock.ExpectQuery(`SELECT requests FROM chat_usage`).
		WithArgs(int64(43)).
		WillReturnRows(sqlmock.NewRows([]string{"requests"}))

	ctx := context.Background()
	if n, err := us.Requests(ctx, 42); err != nil || n != 3 {
		t.Errorf("Requests(42) = %d, %v", n, err)
	}
	if n, err := us.Requests(ctx, 43); err != nil || n != 0 {
		t.Errorf("unknown chat = %d, %v, want 0, nil", n, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestRecordPayment(t *testing.T) {
	us, mock := newMockUsage(t)
	mock.ExpectExec(`(?s)INSERT INTO payments .* ON CONFLICT \(order_id\)`).
		WithArgs("O-1", int64(42), "pro", "20.00", "USD", "CREATED").
		WillReturnResult(sqlmock.NewResult(0, 1))

	p := Payment{OrderID: "O-1", ChatID: 42, Plan: "pro", Amount: "20.00", Currency: "USD", Status: "CREATED"}
	if err := us.RecordPayment(context.Background(), p); err != nil {
		t.Fatal(err)
	}
	if err := us.RecordPayment(context.Background(), Payment{}); err == nil {
		t.Error("empty order id should be rejected")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestGetPayment(t *testing.T) {
	us, mock := newMockUsage(t)
	created := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	cols := []string{"order_id", "chat_id", "plan", "amount", "currency", "status", "created_at"}
	mock.ExpectQuery(`SELECT order_id, chat_id, plan`).
		WithArgs("O-1").
		WillReturnRows(sqlmock.NewRows(cols).AddRow("O-1", int64(42), "pro", "20.00", "USD", "COMPLETED", created))
	mock.ExpectQuery(`SELECT order_id, chat_id, plan`).
		WithArgs("O-2").
		WillReturnRows(sqlmock.NewRows(cols))

	ctx := context.Background()
	p, err := us.GetPayment(ctx, "O-1")
	if err != nil || p == nil {
		t.Fatalf("GetPayment = %v, %v", p, err)
	}
	if p.ChatID != 42 || p.Status != "COMPLETED" || !p.CreatedAt.Equal(created) {
		t.Errorf("payment = %+v", p)
	}
	if p, err := us.GetPayment(ctx, "O-2"); err != nil || p != nil {
		t.Errorf("unknown order = %v, %v, want nil, nil", p, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}
