package bridge

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codemuse/shopping-comparison/models"
)

func TestSendDeliversReply(t *testing.T) {
	b := New(time.Second, nil)
	b.Attach(func(req Request, reply func(Response)) {
		assert.Equal(t, ActionScrapeProduct, req.Action)
		reply(Response{Success: true, Data: &models.Snapshot{Title: "Widget"}})
	})

	resp, err := b.Send(context.Background(), Request{Action: ActionScrapeProduct})

	require.NoError(t, err)
	assert.True(t, resp.Success)
	require.NotNil(t, resp.Data)
	assert.Equal(t, "Widget", resp.Data.Title)
}

func TestSendAsyncReply(t *testing.T) {
	// Handlers may reply after returning; the channel stays open until the
	// reply arrives.
	b := New(time.Second, nil)
	b.Attach(func(req Request, reply func(Response)) {
		go func() {
			time.Sleep(20 * time.Millisecond)
			reply(Response{Success: true})
		}()
	})

	resp, err := b.Send(context.Background(), Request{Action: ActionScrapeProduct})

	require.NoError(t, err)
	assert.True(t, resp.Success)
}

func TestSendNoReceiver(t *testing.T) {
	b := New(time.Second, nil)

	_, err := b.Send(context.Background(), Request{Action: ActionScrapeProduct})

	assert.ErrorIs(t, err, ErrNoReceiver)
}

func TestSendAfterDetach(t *testing.T) {
	b := New(time.Second, nil)
	b.Attach(func(req Request, reply func(Response)) { reply(Response{Success: true}) })
	b.Detach()

	_, err := b.Send(context.Background(), Request{Action: ActionScrapeProduct})

	assert.ErrorIs(t, err, ErrNoReceiver)
}

func TestSendTimesOutOnSilentHandler(t *testing.T) {
	b := New(30*time.Millisecond, nil)
	b.Attach(func(req Request, reply func(Response)) {
		// Never replies.
	})

	_, err := b.Send(context.Background(), Request{Action: ActionScrapeProduct})

	assert.ErrorIs(t, err, ErrNoReply)
}

func TestSendHonorsContextCancellation(t *testing.T) {
	b := New(time.Minute, nil)
	b.Attach(func(req Request, reply func(Response)) {
		// Never replies; the caller's context should win first.
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := b.Send(ctx, Request{Action: ActionScrapeProduct})

	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSecondReplyIsDropped(t *testing.T) {
	b := New(time.Second, nil)
	b.Attach(func(req Request, reply func(Response)) {
		reply(Response{Success: true, Error: "first"})
		reply(Response{Success: false, Error: "second"})
	})

	resp, err := b.Send(context.Background(), Request{Action: ActionScrapeProduct})

	require.NoError(t, err)
	assert.Equal(t, "first", resp.Error)
}

func TestHandlerPanicBecomesFailureResponse(t *testing.T) {
	b := New(time.Second, nil)
	b.Attach(func(req Request, reply func(Response)) {
		panic("selector exploded")
	})

	resp, err := b.Send(context.Background(), Request{Action: ActionScrapeProduct})

	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "selector exploded")
}
