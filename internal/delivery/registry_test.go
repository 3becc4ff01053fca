// internal/delivery/registry_test.go
package delivery

import (
	"testing"

	"github.com/user/mindloom/internal/types"
)

func TestRegistryRoutesByPrefix(t *testing.T) {
	r := NewRegistry()

	var got string
	r.Register("telegram:", func(key types.SessionKey, reply string) error {
		got = reply
		return nil
	})

	if err := r.Deliver(types.NewSessionKey("telegram", "42", "99"), "hello"); err != nil {
		t.Fatal(err)
	}
	if got != "hello" {
		t.Errorf("reply = %q", got)
	}

	if err := r.Deliver(types.SessionKey("unknown:1"), "x"); err == nil {
		t.Error("expected error for unregistered prefix")
	}
}
