package main

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/BearBump/TrackSim/config"
	"github.com/BearBump/TrackSim/internal/api/httpapi"
	"github.com/BearBump/TrackSim/internal/api/trackinggrpc"
	"github.com/BearBump/TrackSim/internal/integrations/carrier/emulatorv1"
	"github.com/BearBump/TrackSim/internal/integrations/carrier/fake"
	"github.com/BearBump/TrackSim/internal/models"
	"github.com/BearBump/TrackSim/internal/services/trackings"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
)

// stubService answers every call with a fixed order.
type stubService struct{}

func (stubService) CreateOrder(context.Context, models.OrderCreateInput) (string, error) {
	return "TRKSTUB01", nil
}
func (stubService) ListOrders(context.Context, models.OrderFilter) ([]*models.Order, error) {
	return []*models.Order{}, nil
}
func (stubService) GetTrackingInfo(_ context.Context, id string) (*models.TrackingInfo, error) {
	return &models.TrackingInfo{Order: &models.Order{TrackingID: id, Status: models.StatusPacked}}, nil
}
func (stubService) Advance(context.Context, string, models.StatusUpdateDetails) (*models.Order, error) {
	return &models.Order{}, nil
}
func (stubService) SetStatus(context.Context, string, models.Status, models.StatusUpdateDetails) (*models.Order, error) {
	return &models.Order{}, nil
}
func (stubService) SyncFromCarrier(context.Context, string) (*models.Order, bool, error) {
	return &models.Order{}, false, nil
}
func (stubService) ConfirmDelivery(context.Context, string, string) (*models.Order, error) {
	return &models.Order{}, nil
}
func (stubService) CreateZone(context.Context, models.ZoneCreateInput) (*models.Zone, error) {
	return &models.Zone{}, nil
}
func (stubService) ListZones(context.Context) ([]*models.Zone, error) { return []*models.Zone{}, nil }
func (stubService) DeleteZone(context.Context, uint64) error           { return nil }

type countingTask struct {
	started chan struct{}
}

func (t countingTask) Run(ctx context.Context) error {
	close(t.started)
	<-ctx.Done()
	return ctx.Err()
}

func TestRunTrackAPI_ServesHTTPAndGRPC(t *testing.T) {
	sw := filepath.Join(t.TempDir(), "swagger.json")
	require.NoError(t, os.WriteFile(sw, []byte(`{"swagger":"2.0"}`), 0o600))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	type addrs struct{ grpc, http string }
	addrCh := make(chan addrs, 1)
	opts := trackAPIOpts{
		grpcAddr: "127.0.0.1:0",
		httpAddr: "127.0.0.1:0",
		http:     httpapi.Options{SwaggerPath: sw, AdminToken: "ops-token"},
		onListen: func(g, h string) { addrCh <- addrs{g, h} },
	}

	task := countingTask{started: make(chan struct{})}
	errCh := make(chan error, 1)
	go func() { errCh <- runTrackAPI(ctx, opts, stubService{}, nil, task) }()

	a := <-addrCh

	resp, err := http.Get("http://" + a.http + "/swagger.json")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, string(body), `"swagger"`)

	resp, err = http.Get("http://" + a.http + "/api/v1/track/TRK42")
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.True(t, strings.Contains(string(body), `"TRK42"`))

	resp, err = http.Get("http://" + a.http + "/api/v1/orders")
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req, err := http.NewRequest(http.MethodGet, "http://"+a.http+"/api/v1/orders", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer ops-token")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	conn, err := grpc.NewClient(a.grpc, grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	defer conn.Close()
	rpcCtx, rpcCancel := context.WithTimeout(ctx, 5*time.Second)
	defer rpcCancel()
	_, err = trackinggrpc.NewClient(conn).GetTrackingInfo(rpcCtx, &trackinggrpc.GetTrackingInfoRequest{TrackingID: "TRK42"})
	require.Equal(t, codes.Unauthenticated, status.Code(err))
	info, err := trackinggrpc.NewClient(conn).WithAdminToken("ops-token").
		GetTrackingInfo(rpcCtx, &trackinggrpc.GetTrackingInfoRequest{TrackingID: "TRK42"})
	require.NoError(t, err)
	require.Equal(t, models.StatusPacked, info.Info.Order.Status)

	select {
	case <-task.started:
	case <-time.After(2 * time.Second):
		t.Fatal("background task did not start")
	}

	cancel()
	select {
	case err := <-errCh:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting servers to stop")
	}
}

func TestRunTrackAPI_ListenError(t *testing.T) {
	err := runTrackAPI(context.Background(), trackAPIOpts{grpcAddr: "256.0.0.1:bad", httpAddr: "127.0.0.1:0"}, stubService{}, nil)
	require.Error(t, err)
}

func TestNewCarrierClient(t *testing.T) {
	_, ok := newCarrierClient(config.CarrierConfig{Mode: "emulator", BaseURL: "http://localhost:9000"}).(*emulatorv1.Client)
	require.True(t, ok)

	_, ok = newCarrierClient(config.CarrierConfig{Mode: "fake"}).(*fake.Client)
	require.True(t, ok)

	require.Nil(t, newCarrierClient(config.CarrierConfig{}))
}

func TestTrackingSettings(t *testing.T) {
	s := trackingSettings(&config.Config{})
	require.Equal(t, trackings.DefaultSettings(), s)

	s = trackingSettings(&config.Config{
		Tracking: config.TrackingConfig{IDPrefix: "SHP", IDFormat: trackings.IDFormatNumeric, DefaultDeliveryDaysMax: 9},
		API:      config.APIConfig{CacheTTLSeconds: 30},
	})
	require.Equal(t, "SHP", s.IDPrefix)
	require.Equal(t, trackings.IDFormatNumeric, s.IDFormat)
	require.Equal(t, 9, s.DefaultDeliveryDaysMax)
	require.Equal(t, 30*time.Second, s.CacheTTL)
	require.NoError(t, s.Validate())

	s = trackingSettings(&config.Config{
		Tracking: config.TrackingConfig{IDFormat: trackings.IDFormatCustom, IDTemplate: "{PREFIX}/{RANDOM}"},
	})
	require.Error(t, s.Validate())
}

func TestNotifySettings(t *testing.T) {
	s, err := notifySettings(&config.Config{
		Notifications: config.NotificationsConfig{Enabled: true, Statuses: []string{"Shipped", "out-for-delivery"}},
	})
	require.NoError(t, err)
	require.True(t, s.Enabled)
	require.Equal(t, []models.Status{models.StatusShipped, models.StatusOutForDelivery}, s.Statuses)

	_, err = notifySettings(&config.Config{Notifications: config.NotificationsConfig{Statuses: []string{"lost"}}})
	require.Error(t, err)
}
