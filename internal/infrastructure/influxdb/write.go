package influxdb

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/nerrad567/temptick-core/internal/cloud"
	"github.com/nerrad567/temptick-core/internal/scalar"
)

// delivery is the cloud.Delivery returned by VirtualWrite.
type delivery struct {
	done chan struct{}
	err  error
}

func (d *delivery) Done() <-chan struct{} { return d.done }

// Error is valid once Done is closed.
func (d *delivery) Error() error { return d.err }

// VirtualWrite writes v to a virtual port. The point is sent on a separate
// goroutine; the returned Delivery completes when the server answers.
//
// Parameters:
//   - port: Virtual port number, written as the "port" tag
//   - v: Value, written as the "value" field
//
// Returns:
//   - cloud.Delivery: Completion handle
//   - error: ErrNotConnected without a session
func (c *Client) VirtualWrite(port uint8, v scalar.Value) (cloud.Delivery, error) {
	c.mu.RLock()
	writeAPI := c.writeAPI
	if writeAPI != nil {
		c.inflight.Add(1)
	}
	c.mu.RUnlock()

	if writeAPI == nil {
		return nil, ErrNotConnected
	}

	point := c.newPoint(port, v, time.Now())
	d := &delivery{done: make(chan struct{})}

	go func() {
		defer c.inflight.Done()
		defer close(d.done)

		ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
		defer cancel()
		if err := writeAPI.WritePoint(ctx, point); err != nil {
			d.err = fmt.Errorf("%w: port %d: %w", ErrWriteFailed, port, err)
		}
	}()
	return d, nil
}

// newPoint builds the point for one port write. Booleans stay booleans and
// every numeric kind is written as a float so the field type never changes
// between writes.
func (c *Client) newPoint(port uint8, v scalar.Value, ts time.Time) *write.Point {
	var field interface{}
	if v.Kind() == scalar.KindBool {
		field = v.Bool()
	} else {
		field = v.Float64()
	}

	return write.NewPoint(
		c.cfg.Measurement,
		map[string]string{
			"device": c.device,
			"port":   strconv.Itoa(int(port)),
		},
		map[string]interface{}{
			"value": field,
		},
		ts,
	)
}
