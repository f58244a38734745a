package ids_test

import (
	"testing"

	"github.com/jrsteele09/smartbill-auth/internal/ids"
	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	a := ids.New()
	b := ids.New()
	require.NotEqual(t, a, b)
	require.Len(t, a, 26)
	require.Less(t, a, b)

	_, err := ulid.ParseStrict(a)
	require.NoError(t, err)
}
