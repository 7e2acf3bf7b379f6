package gimbal

import (
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeQueryCommands(t *testing.T) {
	frame, err := Command{Op: OpGetPosition}.Encode()
	require.NoError(t, err)
	require.Equal(t, "RP;", frame)

	frame, err = Command{Op: OpGetState}.Encode()
	require.NoError(t, err)
	require.Equal(t, "RS;", frame)
}

func TestEncodeSetpointCommands(t *testing.T) {
	cases := []struct {
		name  string
		axis  Axis
		mode  Mode
		value float64
		want  string
	}{
		{"tilt absolute", AxisTilt, Absolute, 5, "GT,5;"},
		{"tilt relative", AxisTilt, Relative, 5, "GTR,5;"},
		{"rot absolute", AxisRotation, Absolute, -2.5, "GR,-2.5;"},
		{"rot relative", AxisRotation, Relative, -2, "GRR,-2;"},
		{"zero is a real target", AxisTilt, Absolute, 0, "GT,0;"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			frame, err := Command{Op: OpSetAxis, Axis: tc.axis, Mode: tc.mode, Value: tc.value}.Encode()
			require.NoError(t, err)
			require.Equal(t, tc.want, frame)
		})
	}
}

func TestEncodeAlwaysTerminated(t *testing.T) {
	for _, cmd := range []Command{
		{Op: OpGetPosition},
		{Op: OpGetState},
		{Op: OpSetAxis, Axis: AxisRotation, Mode: Relative, Value: 67.8},
	} {
		frame, err := Command{Op: cmd.Op, Axis: cmd.Axis, Mode: cmd.Mode, Value: cmd.Value}.Encode()
		require.NoError(t, err)
		require.True(t, strings.HasSuffix(frame, ";"))
	}
}

func TestEncodeRoundTripsAngles(t *testing.T) {
	for _, v := range []float64{0, 1, -1, 12.5, -3.25, 76.42, 1e-9, 123456.789} {
		frame, err := Command{Op: OpSetAxis, Axis: AxisTilt, Mode: Absolute, Value: v}.Encode()
		require.NoError(t, err)
		payload := strings.TrimSuffix(strings.TrimPrefix(frame, "GT,"), ";")
		back, err := strconv.ParseFloat(payload, 64)
		require.NoError(t, err)
		require.Equal(t, v, back)
	}
}

func TestEncodeGainsNotImplemented(t *testing.T) {
	_, err := Command{Op: OpGetGains}.Encode()
	require.ErrorIs(t, err, ErrNotImplemented)
	_, err = Command{Op: OpSetGains}.Encode()
	require.ErrorIs(t, err, ErrNotImplemented)
}

func TestParseAxis(t *testing.T) {
	ax, err := ParseAxis("tilt")
	require.NoError(t, err)
	require.Equal(t, AxisTilt, ax)

	ax, err = ParseAxis("ROT")
	require.NoError(t, err)
	require.Equal(t, AxisRotation, ax)

	_, err = ParseAxis("yaw")
	var uae UnknownAxisError
	require.ErrorAs(t, err, &uae)
	require.Equal(t, "yaw", uae.Axis)
}
