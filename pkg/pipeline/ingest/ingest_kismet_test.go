package ingest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/netobserv/wids-feature-pipeline/pkg/api"
	"github.com/netobserv/wids-feature-pipeline/pkg/model"
	operational "github.com/netobserv/wids-feature-pipeline/pkg/operational/metrics"
	"github.com/netobserv/wids-feature-pipeline/pkg/test"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFetcher(t *testing.T, srv *httptest.Server, mod func(*api.IngestKismet)) (*KismetFetcher, *clock.Mock) {
	params := api.IngestKismet{URL: srv.URL, WindowSec: 10, Timeout: api.Duration{Duration: time.Second}}
	if mod != nil {
		mod(&params)
	}
	mock := clock.NewMock()
	mock.Set(time.Date(2024, 3, 1, 12, 0, 0, 123456789, time.UTC))
	f, err := NewKismetFetcher(operational.NewMetrics(nil), params, mock)
	require.NoError(t, err)
	return f, mock
}

func TestKismetFetcher_Fetch(t *testing.T) {
	kismet := test.NewFakeKismet(
		test.KismetDevice("aa:bb:cc:dd:ee:01", "home", -42, 1709294400, map[string]uint64{
			"total": 100, "llc": 20, "data": 70, "client_disconnects": 3, "num_probed_ssids": 2,
		}),
		test.KismetDevice("aa:bb:cc:dd:ee:02", "", -70, 1709294401, nil),
	)
	srv := httptest.NewServer(kismet)
	defer srv.Close()
	f, _ := newTestFetcher(t, srv, nil)

	snap, err := f.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 1, 12, 0, 0, 123000000, time.UTC), snap.CycleTime)
	require.Len(t, snap.Records, 2)

	first := snap.Records[0]
	assert.Equal(t, "AA:BB:CC:DD:EE:01", first.ID)
	assert.Equal(t, "home", first.SSID)
	require.NotNil(t, first.Signal)
	assert.Equal(t, -42, *first.Signal)
	assert.Equal(t, -47, *first.SignalMin)
	assert.Equal(t, -37, *first.SignalMax)
	assert.Equal(t, "6", first.Channel)
	assert.Equal(t, "IEEE802.11", first.PhyName)
	assert.Equal(t, time.Unix(1709294400, 0).UTC(), first.LastSeen)
	assert.Equal(t, time.Unix(1709294340, 0).UTC(), first.FirstSeen)
	assert.Equal(t, model.FrameCounters{
		model.CounterTotal:    100,
		model.CounterMgmt:     20,
		model.CounterData:     70,
		model.CounterDeauth:   3,
		model.CounterProbeReq: 2,
	}, first.Counters)

	// common name equal to the MAC is not an SSID
	assert.Equal(t, "", snap.Records[1].SSID)
	assert.Empty(t, snap.Records[1].Counters)

	reqs := kismet.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "/devices/last-time/-10/devices.json", reqs[0].URL.Path)
}

func TestKismetFetcher_Credentials(t *testing.T) {
	kismet := test.NewFakeKismet()
	srv := httptest.NewServer(kismet)
	defer srv.Close()

	f, _ := newTestFetcher(t, srv, func(p *api.IngestKismet) { p.APIKey = "secret" })
	_, err := f.Fetch(context.Background())
	require.NoError(t, err)
	f, _ = newTestFetcher(t, srv, func(p *api.IngestKismet) { p.Username, p.Password = "kismet", "pw" })
	_, err = f.Fetch(context.Background())
	require.NoError(t, err)

	reqs := kismet.Requests()
	require.Len(t, reqs, 2)
	cookie, err := reqs[0].Cookie("KISMET")
	require.NoError(t, err)
	assert.Equal(t, "secret", cookie.Value)
	user, pass, ok := reqs[1].BasicAuth()
	require.True(t, ok)
	assert.Equal(t, "kismet", user)
	assert.Equal(t, "pw", pass)
}

func TestKismetFetcher_EmptyListing(t *testing.T) {
	srv := httptest.NewServer(test.NewFakeKismet())
	defer srv.Close()
	f, _ := newTestFetcher(t, srv, nil)
	snap, err := f.Fetch(context.Background())
	require.NoError(t, err)
	assert.Empty(t, snap.Records)
	assert.False(t, snap.CycleTime.IsZero())
}

func TestKismetFetcher_Errors(t *testing.T) {
	kismet := test.NewFakeKismet()
	srv := httptest.NewServer(kismet)
	f, _ := newTestFetcher(t, srv, nil)

	kismet.SetStatus(http.StatusUnauthorized)
	_, err := f.Fetch(context.Background())
	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, ReasonStatus, fe.Reason)
	assert.Equal(t, http.StatusUnauthorized, fe.StatusCode)

	kismet.SetStatus(http.StatusOK)
	kismet.SetRawBody(`{"not": "a list"`)
	_, err = f.Fetch(context.Background())
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, ReasonDecode, fe.Reason)

	srv.Close()
	_, err = f.Fetch(context.Background())
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, ReasonTransport, fe.Reason)
}

func TestKismetFetcher_Timeout(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, _ *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)
	f, _ := newTestFetcher(t, srv, func(p *api.IngestKismet) { p.Timeout = api.Duration{Duration: 50 * time.Millisecond} })

	start := time.Now()
	_, err := f.Fetch(context.Background())
	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, ReasonTransport, fe.Reason)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestKismetFetcher_DropsAndDeduplicates(t *testing.T) {
	older := test.KismetDevice("aa:bb:cc:dd:ee:01", "old", -50, 1000, nil)
	newer := test.KismetDevice("AA:BB:CC:DD:EE:01", "new", -40, 2000, nil)
	noMAC := map[string]interface{}{"kismet.device.base.name": "sdr thing"}
	srv := httptest.NewServer(test.NewFakeKismet(older, noMAC, newer))
	defer srv.Close()
	f, _ := newTestFetcher(t, srv, nil)

	snap, err := f.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, snap.Records, 1)
	assert.Equal(t, "new", snap.Records[0].SSID)
}

func TestDecodeDevice(t *testing.T) {
	t.Run("nested base layout", func(t *testing.T) {
		rec, ok := DecodeDevice(map[string]interface{}{
			"kismet.device.base": map[string]interface{}{
				"macaddr":     "de:ad:be:ef:00:01",
				"name":        "cafe",
				"channel":     11,
				"num_clients": 4,
				"signal": map[string]interface{}{
					"kismet.common.signal.last": -61.0,
				},
			},
		})
		require.True(t, ok)
		assert.Equal(t, "DE:AD:BE:EF:00:01", rec.ID)
		assert.Equal(t, "cafe", rec.SSID)
		assert.Equal(t, "11", rec.Channel)
		require.NotNil(t, rec.ClientCount)
		assert.Equal(t, 4, *rec.ClientCount)
		require.NotNil(t, rec.Signal)
		assert.Equal(t, -61, *rec.Signal)
		assert.Empty(t, rec.Malformed)
	})

	t.Run("zero signal is absent", func(t *testing.T) {
		dev := test.KismetDevice("aa:aa:aa:aa:aa:aa", "x", 0, 10, nil)
		rec, ok := DecodeDevice(dev)
		require.True(t, ok)
		assert.Nil(t, rec.Signal)
	})

	t.Run("malformed", func(t *testing.T) {
		rec, ok := DecodeDevice(map[string]interface{}{
			"kismet.device.base.macaddr":   "aa:aa:aa:aa:aa:ab",
			"kismet.device.base.last_time": "yesterday",
		})
		require.True(t, ok)
		assert.Equal(t, "AA:AA:AA:AA:AA:AB", rec.ID)
		assert.NotEmpty(t, rec.Malformed)
	})

	t.Run("not an object", func(t *testing.T) {
		rec, ok := DecodeDevice(42.0)
		require.True(t, ok)
		assert.NotEmpty(t, rec.Malformed)
	})

	t.Run("no mac", func(t *testing.T) {
		_, ok := DecodeDevice(map[string]interface{}{"kismet.device.base.name": "n"})
		assert.False(t, ok)
	})
}

func TestNewKismetFetcher_Invalid(t *testing.T) {
	_, err := NewKismetFetcher(operational.NewMetrics(nil), api.IngestKismet{WindowSec: 10}, nil)
	require.Error(t, err)
	_, err = NewKismetFetcher(operational.NewMetrics(nil), api.IngestKismet{URL: "http://k", WindowSec: 0}, nil)
	require.Error(t, err)
}
