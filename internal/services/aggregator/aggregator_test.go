package aggregator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sensormesh/pipeline/internal/model"
	"github.com/sensormesh/pipeline/internal/radio"
	"github.com/sensormesh/pipeline/internal/serial"
)

type captureWriter struct {
	frames [][]byte
}

func (w *captureWriter) WriteFrame(frame []byte) error {
	w.frames = append(w.frames, append([]byte(nil), frame...))
	return nil
}

func (w *captureWriter) Close() error { return nil }

func newTestService(multiplexed bool, out *captureWriter) *Service {
	return NewService(
		nil, // consumer only needed by Start
		out,
		radio.Codec{Multiplexed: multiplexed},
		serial.Codec{Multiplexed: multiplexed, MaxCluster: 2},
		1,
	)
}

func encodePacket(t *testing.T, codec radio.Codec, s model.Sample) []byte {
	t.Helper()
	b, err := codec.Encode(s)
	require.NoError(t, err)
	return b
}

func TestEmitsOneFramePerAcceptedPacket(t *testing.T) {
	out := &captureWriter{}
	svc := newTestService(false, out)
	codec := radio.Codec{}
	serialCodec := serial.Codec{}

	// first packet: temperature only, humidity defaults to 0
	require.NoError(t, svc.handlePacket("radio/1", encodePacket(t, codec, model.Sample{Kind: model.KindTemperature, Raw: 100})))
	require.Len(t, out.frames, 1)
	f, err := serialCodec.Decode(out.frames[0])
	require.NoError(t, err)
	assert.Equal(t, serial.Frame{Cluster: 1, TempRaw: 100, HumRaw: 0}, f)

	// second packet completes the pair
	require.NoError(t, svc.handlePacket("radio/1", encodePacket(t, codec, model.Sample{Kind: model.KindHumidity, Raw: 550})))
	require.Len(t, out.frames, 2)
	f, err = serialCodec.Decode(out.frames[1])
	require.NoError(t, err)
	assert.Equal(t, serial.Frame{Cluster: 1, TempRaw: 100, HumRaw: 550}, f)

	// a repeated temperature re-emits the full current pair
	require.NoError(t, svc.handlePacket("radio/1", encodePacket(t, codec, model.Sample{Kind: model.KindTemperature, Raw: 101})))
	require.Len(t, out.frames, 3)
	f, err = serialCodec.Decode(out.frames[2])
	require.NoError(t, err)
	assert.Equal(t, serial.Frame{Cluster: 1, TempRaw: 101, HumRaw: 550}, f)
}

func TestBadPacketDroppedWithoutEmission(t *testing.T) {
	out := &captureWriter{}
	svc := newTestService(false, out)

	require.NoError(t, svc.handlePacket("radio/1", []byte{0xff}))             // wrong length
	require.NoError(t, svc.handlePacket("radio/1", []byte{0x7f, 0x00, 0x01})) // unknown kind
	assert.Empty(t, out.frames)

	// state was never touched: the next good packet starts from defaults
	require.NoError(t, svc.handlePacket("radio/1", encodePacket(t, radio.Codec{}, model.Sample{Kind: model.KindHumidity, Raw: 9})))
	require.Len(t, out.frames, 1)
	f, err := serial.Codec{}.Decode(out.frames[0])
	require.NoError(t, err)
	assert.Equal(t, serial.Frame{Cluster: 1, TempRaw: 0, HumRaw: 9}, f)
}

// Replaying the same ordered input always yields the same output sequence.
func TestDeterministicReplay(t *testing.T) {
	inputs := []model.Sample{
		{Kind: model.KindTemperature, Raw: 10},
		{Kind: model.KindHumidity, Raw: 20},
		{Kind: model.KindTemperature, Raw: 30},
		{Kind: model.KindTemperature, Raw: 30},
		{Kind: model.KindHumidity, Raw: 40},
	}

	run := func() [][]byte {
		out := &captureWriter{}
		svc := newTestService(false, out)
		for _, s := range inputs {
			require.NoError(t, svc.handlePacket("radio/1", encodePacket(t, radio.Codec{}, s)))
		}
		return out.frames
	}

	first := run()
	second := run()
	require.Len(t, first, len(inputs))
	assert.Equal(t, first, second)
}

func TestMultiplexedClustersStayIsolated(t *testing.T) {
	out := &captureWriter{}
	svc := newTestService(true, out)
	codec := radio.Codec{Multiplexed: true}
	serialCodec := serial.Codec{Multiplexed: true, MaxCluster: 2}

	require.NoError(t, svc.handlePacket("radio/1", encodePacket(t, codec, model.Sample{Kind: model.KindTemperature, Raw: 111, Cluster: 1})))
	require.NoError(t, svc.handlePacket("radio/2", encodePacket(t, codec, model.Sample{Kind: model.KindTemperature, Raw: 222, Cluster: 2})))
	require.NoError(t, svc.handlePacket("radio/2", encodePacket(t, codec, model.Sample{Kind: model.KindHumidity, Raw: 333, Cluster: 2})))

	require.Len(t, out.frames, 3)

	f, err := serialCodec.Decode(out.frames[0])
	require.NoError(t, err)
	assert.Equal(t, serial.Frame{Cluster: 1, TempRaw: 111, HumRaw: 0}, f)

	f, err = serialCodec.Decode(out.frames[1])
	require.NoError(t, err)
	assert.Equal(t, serial.Frame{Cluster: 2, TempRaw: 222, HumRaw: 0}, f)

	// cluster 2 completes its pair; cluster 1's temperature is untouched
	f, err = serialCodec.Decode(out.frames[2])
	require.NoError(t, err)
	assert.Equal(t, serial.Frame{Cluster: 2, TempRaw: 222, HumRaw: 333}, f)
}

func TestFillStates(t *testing.T) {
	var st AggregateState
	assert.Equal(t, Empty, st.Fill())

	st.Apply(model.Sample{Kind: model.KindTemperature, Raw: 1})
	assert.Equal(t, PartialTemp, st.Fill())

	st.Apply(model.Sample{Kind: model.KindHumidity, Raw: 2})
	assert.Equal(t, Complete, st.Fill())

	var humFirst AggregateState
	humFirst.Apply(model.Sample{Kind: model.KindHumidity, Raw: 2})
	assert.Equal(t, PartialHum, humFirst.Fill())
}
