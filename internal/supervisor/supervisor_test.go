package supervisor

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestListenReuseAddrBindsEphemeralPort(t *testing.T) {
	ln, err := listenReuseAddr(0)
	require.NoError(t, err)
	defer ln.Close()
	require.NotNil(t, ln.Addr())
}
