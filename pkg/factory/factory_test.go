package factory

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	bagcontext "github.com/danielkrainas/gobag/context"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/danielkrainas/lapse/pkg/service"
	"github.com/danielkrainas/lapse/pkg/util/log"
)

func TestInitializeStorage(t *testing.T) {
	config := service.DefaultConfig()
	store, cleanup, err := InitializeStorage(context.Background(), config)
	require.NoError(t, err)
	defer cleanup()
	assert.IsType(t, &service.MemoryStore{}, store)

	config.Storage.Driver = "postgres"
	_, _, err = InitializeStorage(context.Background(), config)
	assert.Error(t, err)
}

func TestHub(t *testing.T) {
	config := service.DefaultConfig()
	hub, cleanup, err := Hub(config)
	require.NoError(t, err)
	defer cleanup()
	assert.IsType(t, &service.LocalHub{}, hub)

	config.Hub.Driver = "kafka"
	_, _, err = Hub(config)
	assert.Error(t, err)
}

func TestPublisher_RefusesLocalHub(t *testing.T) {
	config := service.DefaultConfig()
	_, _, err := Publisher(config)
	assert.ErrorIs(t, err, service.ErrHubNotShared)

	config.Hub.Driver = ""
	_, _, err = Publisher(config)
	assert.ErrorIs(t, err, service.ErrHubNotShared)

	config.Hub.Driver = "kafka"
	_, _, err = Publisher(config)
	require.Error(t, err)
	assert.NotErrorIs(t, err, service.ErrHubNotShared)
}

func TestInitializeMessaging_DegradesWithoutIdentity(t *testing.T) {
	config := service.DefaultConfig()
	m := InitializeMessaging(config, InitializeHubFactory(config))
	assert.IsType(t, service.NoopMessaging{}, m)

	config.Messaging.Identity = service.AppIdentity{
		APIKey:    "key",
		SenderID:  "sender",
		AppID:     "app",
		ProjectID: "project",
	}

	m = InitializeMessaging(config, InitializeHubFactory(config))
	require.NotNil(t, m)
	defer m.Close()
	_, isNoop := m.(service.NoopMessaging)
	assert.False(t, isNoop)
}

func TestInitializeReceiver_UsesNotificationDefaults(t *testing.T) {
	config := service.DefaultConfig()
	config.Notifications.DefaultTitle = "Lapse"
	config.Notifications.Icon = "/lapse.png"

	display := &capturingDisplayer{}
	r := InitializeReceiver(config, InitializeRegistration(), display)
	r.Install()
	require.NoError(t, r.HandleBackgroundMessage(&service.MessagePayload{}))

	assert.Equal(t, "Lapse", display.title)
	assert.Equal(t, service.DefaultBody, display.opts.Body)
	assert.Equal(t, "/lapse.png", display.opts.Icon)
}

func TestSweeperManager(t *testing.T) {
	config := service.DefaultConfig()
	config.HTTP.Enabled = false

	cm, cleanup, err := SweeperManager(context.Background(), config)
	require.NoError(t, err)
	defer cleanup()
	assert.NotNil(t, cm)
}

func TestInitializeLoggingContext(t *testing.T) {
	defer log.Use(zap.NewNop())()
	config := service.DefaultConfig()
	config.Log.Fields = map[string]interface{}{"service": "lapse"}

	ctx, err := InitializeLoggingContext(bagcontext.WithVersion(context.Background(), "test"), config)
	require.NoError(t, err)
	assert.Equal(t, "lapse", ctx.Value("service"))

	config.Log.Formatter = "xml"
	_, err = InitializeLoggingContext(context.Background(), config)
	assert.Error(t, err)
}

type capturingDisplayer struct {
	title string
	opts  service.NotificationOptions
}

func (d *capturingDisplayer) Show(title string, opts service.NotificationOptions) error {
	d.title = title
	d.opts = opts
	return nil
}

func TestReceiverManager(t *testing.T) {
	config := service.DefaultConfig()
	config.HTTP.Enabled = false
	cm, err := ReceiverManager(context.Background(), config)
	require.NoError(t, err)
	assert.NotNil(t, cm)

	config.Receiver.Upstream = "://no-scheme"
	_, err = ReceiverManager(context.Background(), config)
	assert.Error(t, err)
}

func TestInitializeReceiverAPI_ServesAttachedClients(t *testing.T) {
	config := service.DefaultConfig()
	reg := InitializeRegistration()
	receiver := InitializeReceiver(config, reg, &capturingDisplayer{})
	receiver.Install()

	mux, err := InitializeReceiverAPI(config, reg, receiver)
	require.NoError(t, err)
	reg.Attach(service.NewInboxClient("tab", false, config.Receiver.InboxSize))

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/clients/tab", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), receiver.ID)
}
