package write

import (
	"fmt"
	"time"

	"github.com/netobserv/wids-feature-pipeline/pkg/api"
	"github.com/netobserv/wids-feature-pipeline/pkg/model"
	"github.com/netobserv/wids-feature-pipeline/pkg/pipeline/encode"
)

var (
	testCycle      = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	testSensor     = model.SensorMeta{ID: "pi-1", Site: "lab"}
	fastSinkParams = api.Sink{
		MaxRetries: 2,
		MinBackoff: api.Duration{Duration: time.Millisecond},
		MaxBackoff: api.Duration{Duration: 2 * time.Millisecond},
	}
)

func testDocs(n int, cycle time.Time) []model.IngestDocument {
	docs := make([]model.IngestDocument, 0, n)
	for i := 0; i < n; i++ {
		rssi := -40 - i
		fv := model.FeatureVector{
			DeviceID:    fmt.Sprintf("AA:BB:CC:DD:EE:%02X", i),
			SSID:        fmt.Sprintf("net-%d", i),
			SSIDEntropy: 1,
			RSSILast:    &rssi,
			FrameDeltas: model.FrameCounters{model.CounterTotal: uint64(i)},
		}
		docs = append(docs, encode.Build(&fv, nil, testSensor, cycle))
	}
	return docs
}
