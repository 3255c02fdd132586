package comm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func parseAll(p *Parser, in []byte) (replies []*Reply, errs []error) {
	for _, b := range in {
		pr := p.Parse(b)
		if pr.Reply != nil {
			replies = append(replies, pr.Reply)
		}
		if pr.Err != nil {
			errs = append(errs, pr.Err)
		}
	}
	return
}

func TestParser(t *testing.T) {
	r1 := &Reply{Index: 1, Value: AppendFloat32(nil, 12.5), Millis: AppendFloat32(nil, 100)}
	r2 := &Reply{Index: 2, Value: []byte{1}, Millis: AppendFloat32(nil, 101)}
	malformed := []byte{0xff, 0x55, 5, 1, 1, 0, 4, 0}

	join := func(parts ...[]byte) []byte {
		var out []byte
		for _, p := range parts {
			out = append(out, p...)
		}
		return out
	}

	testCases := []struct {
		name    string
		in      []byte
		replies []*Reply
		errs    int
	}{
		{"single", r1.Bytes(), []*Reply{r1}, 0},
		{"back to back", join(r1.Bytes(), r2.Bytes()), []*Reply{r1, r2}, 0},
		{"crlf terminated", join(r1.Bytes(), []byte("\r\n"), r2.Bytes(), []byte("\r\n")), []*Reply{r1, r2}, 0},
		{"leading noise", join([]byte{0x00, 0x55, 0x12, 0xff, 0x00}, r1.Bytes()), []*Reply{r1}, 0},
		{"repeated preamble byte", join([]byte{0xff}, r2.Bytes()), []*Reply{r2}, 0},
		{"malformed dropped", join(malformed, r2.Bytes()), []*Reply{r2}, 1},
		{"zero length", join([]byte{0xff, 0x55, 0}, r1.Bytes()), []*Reply{r1}, 1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var parser Parser
			replies, errs := parseAll(&parser, tc.in)
			require.Equal(t, tc.replies, replies)
			require.Len(t, errs, tc.errs)
			for _, err := range errs {
				require.True(t, errors.Is(err, ErrMalformedFrame))
			}
			require.Equal(t, SyncStateHunting, parser.State())
		})
	}
}

func TestParserState(t *testing.T) {
	var parser Parser
	require.Equal(t, SyncStateHunting, parser.State())
	frame := (&Reply{Index: 1, Value: []byte{1}, Millis: []byte{2}}).Bytes()
	for _, b := range frame[:len(frame)-1] {
		require.Equal(t, SyncStateReceiving, parser.Parse(b).State)
	}
	parser.Reset()
	require.Equal(t, SyncStateHunting, parser.State())
	replies, errs := parseAll(&parser, frame[len(frame)-1:])
	require.Empty(t, replies)
	require.Empty(t, errs)
}
