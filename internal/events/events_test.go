package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	subject  string
	data     []byte
	pubErr   error
	flushErr error
}

func (f *fakeConn) Publish(subject string, data []byte) error {
	f.subject = subject
	f.data = data
	return f.pubErr
}

func (f *fakeConn) FlushWithContext(context.Context) error {
	return f.flushErr
}

func TestNATSPublisher_PublishOrderPaid(t *testing.T) {
	fc := &fakeConn{}
	p := &NATSPublisher{nc: fc, subject: SubjectOrderPaid}
	paidAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	err := p.PublishOrderPaid(context.Background(), OrderPaid{OrderID: "o1", Total: 9500, ItemCount: 2, PaidAt: paidAt})
	require.NoError(t, err)

	assert.Equal(t, "orders.paid", fc.subject)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(fc.data, &decoded))
	assert.Equal(t, "o1", decoded["orderId"])
	assert.Equal(t, float64(9500), decoded["total"])
}

func TestNATSPublisher_Errors(t *testing.T) {
	p := &NATSPublisher{nc: &fakeConn{pubErr: errors.New("nats: connection closed")}, subject: "orders.paid"}
	assert.ErrorContains(t, p.PublishOrderPaid(context.Background(), OrderPaid{}), "publish orders.paid")

	p = &NATSPublisher{nc: &fakeConn{flushErr: context.DeadlineExceeded}, subject: "orders.paid"}
	assert.ErrorIs(t, p.PublishOrderPaid(context.Background(), OrderPaid{}), context.DeadlineExceeded)
}

func TestNopPublisher(t *testing.T) {
	assert.NoError(t, NopPublisher{}.PublishOrderPaid(context.Background(), OrderPaid{}))
	assert.NoError(t, (&NATSPublisher{}).Close())
}

type deadlineConn struct {
	fakeConn
	hadDeadline bool
}

func (d *deadlineConn) FlushWithContext(ctx context.Context) error {
	_, d.hadDeadline = ctx.Deadline()
	return nil
}

func TestNATSPublisher_FlushAlwaysHasDeadline(t *testing.T) {
	dc := &deadlineConn{}
	p := &NATSPublisher{nc: dc, subject: SubjectOrderPaid}

	require.NoError(t, p.PublishOrderPaid(context.Background(), OrderPaid{OrderID: "o1"}))
	assert.True(t, dc.hadDeadline)
}
