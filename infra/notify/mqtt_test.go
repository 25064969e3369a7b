package notify

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	corelogger "github.com/dinehop/dinehop/core/logger"
	"github.com/dinehop/dinehop/core/model"
)

type fakeToken struct{ err error }

func (t fakeToken) Wait() bool                     { return true }
func (t fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (t fakeToken) Error() error { return t.err }

type fakeClient struct {
	published map[string][]byte
	failures  int
}

func (c *fakeClient) IsConnected() bool   { return true }
func (c *fakeClient) Connect() paho.Token { return fakeToken{} }
func (c *fakeClient) Disconnect(uint)     {}
func (c *fakeClient) Publish(topic string, _ byte, _ bool, payload interface{}) paho.Token {
	if c.failures > 0 {
		c.failures--
		return fakeToken{err: errors.New("broker unavailable")}
	}
	if c.published == nil {
		c.published = make(map[string][]byte)
	}
	c.published[topic] = payload.([]byte)
	return fakeToken{}
}

func newTestPublisher(cli *fakeClient, retries int) *MQTTPublisher {
	return &MQTTPublisher{cli: cli, prefix: "dinehop", maxRetries: retries, log: corelogger.NopLogger{}}
}

func TestPublishJobEventTopicAndPayload(t *testing.T) {
	cli := &fakeClient{}
	p := newTestPublisher(cli, 0)

	job := model.MatchingJob{ID: "j1", EventID: "ev1", Status: model.JobCompleted}
	require.NoError(t, p.PublishJobEvent(job))

	body, ok := cli.published["dinehop/events/ev1/jobs/completed"]
	require.True(t, ok)

	var got model.MatchingJob
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, "j1", got.ID)
}

func TestPublishRetriesThenSucceeds(t *testing.T) {
	cli := &fakeClient{failures: 2}
	p := newTestPublisher(cli, 2)

	require.NoError(t, p.PublishProposalFinalized("ev1", 3))
	assert.Contains(t, cli.published, "dinehop/events/ev1/proposals/finalized")
}

func TestPublishExhaustsRetries(t *testing.T) {
	cli := &fakeClient{failures: 10}
	p := newTestPublisher(cli, 1)

	err := p.PublishProposalUnreleased("ev1", 3)
	require.Error(t, err)
}
