package configobj

import (
	"github.com/dpp-onboard/dpp-go/pkg/auth"
	"github.com/dpp-onboard/dpp-go/pkg/frame"
)

func wrapForTest(ke []byte, s *Sealer, inner frame.Attributes) ([]byte, error) {
	return auth.WrapAttributes(ke, s.ad(frame.TypeConfigResponse), inner)
}
