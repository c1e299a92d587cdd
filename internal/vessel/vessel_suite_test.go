package vessel_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestVessel(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Vessel Suite")
}
