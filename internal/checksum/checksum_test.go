package checksum

import "testing"

func TestSum(t *testing.T) {
	const emptySHA = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	if got := Sum(nil); got != emptySHA {
		t.Errorf("Sum(nil) = %q", got)
	}
	if Sum([]byte("a")) == Sum([]byte("b")) {
		t.Error("different inputs should not collide")
	}
}

func TestETag(t *testing.T) {
	got := ETag(nil)
	if got != `"e3b0c44298fc1c14"` {
		t.Errorf("ETag(nil) = %q", got)
	}
}
