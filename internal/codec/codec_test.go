package codec

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestJSONCodec(t *testing.T) {
	type payload struct {
		Name  string     `json:"name"`
		Price int64      `json:"price"`
		Raw   RawMessage `json:"raw"`
	}

	in := payload{Name: "dice", Price: 999, Raw: RawMessage(`{"a":1}`)}
	data, err := Default.Marshal(in)
	require.NoError(t, err)
	require.JSONEq(t, `{"name":"dice","price":999,"raw":{"a":1}}`, string(data))

	var out payload
	require.NoError(t, Default.Unmarshal(data, &out))
	require.Equal(t, in.Name, out.Name)
	require.Equal(t, in.Price, out.Price)
	require.JSONEq(t, `{"a":1}`, string(out.Raw))
}
