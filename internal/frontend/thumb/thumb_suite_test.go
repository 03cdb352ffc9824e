package thumb_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestThumb(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Thumb Frontend Suite")
}
