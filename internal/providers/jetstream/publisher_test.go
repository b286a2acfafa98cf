package jetstream_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	natsjs "github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/miko-factory/creamdash/internal/adapter"
	"github.com/miko-factory/creamdash/internal/domain"
	"github.com/miko-factory/creamdash/internal/logger"
	"github.com/miko-factory/creamdash/internal/mocks"
	"github.com/miko-factory/creamdash/internal/providers/jetstream"
)

func TestMain(m *testing.M) {
	err := logger.Initialize(logger.Config{
		Debug: false,
	})
	if err != nil {
		panic(err)
	}

	code := m.Run()
	os.Exit(code)
}

var testConfig = jetstream.Config{
	URL:            "nats://localhost:4222",
	StreamName:     "DASHBOARD_EVENTS",
	Subject:        "dashboard.snapshot.updated",
	MaxReconnects:  3,
	ReconnectWait:  time.Second,
	ConnectionName: "creamdash-test",
}

func TestNewPublisher_EnsuresStream(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	natsJS := mocks.NewMockNatsJetStream(ctrl)
	conn := mocks.NewMockNatsConn(ctrl)
	js := mocks.NewMockJetStream(ctrl)

	natsJS.EXPECT().Connect(testConfig.URL, gomock.Any()).Return(conn, js, nil)
	conn.EXPECT().ConnectedUrl().Return(testConfig.URL).AnyTimes()
	js.EXPECT().EnsureStream(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, cfg natsjs.StreamConfig) error {
		assert.Equal(t, "DASHBOARD_EVENTS", cfg.Name)
		assert.Equal(t, []string{"dashboard.snapshot.updated"}, cfg.Subjects)
		return nil
	})

	pub, err := jetstream.NewPublisher(context.Background(), testConfig, natsJS, adapter.NewJSON())
	require.NoError(t, err)

	event := &domain.SnapshotEvent{SnapshotID: "01HZX", Fingerprint: "abc", TokenCount: 3}
	js.EXPECT().Publish(gomock.Any(), "dashboard.snapshot.updated", gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, data []byte, _ ...natsjs.PublishOpt) (*natsjs.PubAck, error) {
			assert.JSONEq(t, `{"snapshot_id":"01HZX","fingerprint":"abc","generated_at":"0001-01-01T00:00:00Z","token_count":3,"batch_count":0}`, string(data))
			return &natsjs.PubAck{Stream: "DASHBOARD_EVENTS"}, nil
		})
	require.NoError(t, pub.PublishSnapshotUpdated(context.Background(), event))

	conn.EXPECT().Close()
	pub.Close()
}

func TestNewPublisher_ConnectFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	natsJS := mocks.NewMockNatsJetStream(ctrl)
	natsJS.EXPECT().Connect(testConfig.URL, gomock.Any()).Return(nil, nil, errors.New("no servers available"))

	pub, err := jetstream.NewPublisher(context.Background(), testConfig, natsJS, adapter.NewJSON())
	assert.Error(t, err)
	assert.Nil(t, pub)
}

func TestNewPublisher_StreamFailureClosesConnection(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	natsJS := mocks.NewMockNatsJetStream(ctrl)
	conn := mocks.NewMockNatsConn(ctrl)
	js := mocks.NewMockJetStream(ctrl)

	natsJS.EXPECT().Connect(testConfig.URL, gomock.Any()).Return(conn, js, nil)
	js.EXPECT().EnsureStream(gomock.Any(), gomock.Any()).Return(errors.New("insufficient resources"))
	conn.EXPECT().Close()

	_, err := jetstream.NewPublisher(context.Background(), testConfig, natsJS, adapter.NewJSON())
	assert.ErrorContains(t, err, "DASHBOARD_EVENTS")
}

func TestPublishSnapshotUpdated_PublishError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	natsJS := mocks.NewMockNatsJetStream(ctrl)
	conn := mocks.NewMockNatsConn(ctrl)
	js := mocks.NewMockJetStream(ctrl)

	natsJS.EXPECT().Connect(testConfig.URL, gomock.Any()).Return(conn, js, nil)
	conn.EXPECT().ConnectedUrl().Return(testConfig.URL).AnyTimes()
	js.EXPECT().EnsureStream(gomock.Any(), gomock.Any()).Return(nil)
	js.EXPECT().Publish(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, errors.New("timeout"))

	pub, err := jetstream.NewPublisher(context.Background(), testConfig, natsJS, adapter.NewJSON())
	require.NoError(t, err)

	err = pub.PublishSnapshotUpdated(context.Background(), &domain.SnapshotEvent{SnapshotID: "x"})
	assert.ErrorContains(t, err, "failed to publish event")
}
