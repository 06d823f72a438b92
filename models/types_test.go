package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStringList_RoundTrip(t *testing.T) {
	v, err := StringList{"black", "white"}.Value()
	require.NoError(t, err)
	require.Equal(t, `["black","white"]`, v)

	var l StringList
	require.NoError(t, l.Scan([]byte(`["red"]`)))
	require.Equal(t, StringList{"red"}, l)

	require.NoError(t, l.Scan(nil))
	require.Nil(t, l)

	empty, err := StringList(nil).Value()
	require.NoError(t, err)
	require.Equal(t, "[]", empty)

	require.Error(t, l.Scan(42))
}
