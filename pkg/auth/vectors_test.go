package auth

import (
	"crypto/ecdh"
	"crypto/rand"
	"encoding/hex"
	"testing"

	"github.com/dpp-onboard/dpp-go/pkg/bootstrap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// P-256 responder-only authentication vectors.
const (
	vecIProtoPublic  = "50a532ae2a07207276418d2fa630295d45569be425aa634f02014d00a7d1f61a"
	vecRBootPublic   = "09c585a91b4df9fd25a045201885c39cc5cfae397ddaeda957dec57fa0e3503f"
	vecRBootPrivate  = "54ce181a98525f217216f59b245f60e9df30ac7f6b26c939418cfc3c42d1afa0"
	vecRProtoPrivate = "f798ed2e19286f6a6efe210b1863badb99af2a14b497634dbfd2a97394fb5aa5"
	vecRProtoPublic  = "5e3fb3576884887f17c3203d8a3a6c2fac722ef0e2201b61ac73bc655c709a90"
	vecK1            = "3d832a02ed6d7fc1dc96d2eceab738cf01c0028eb256be33d5a21a720bfcf949"
	vecK2            = "ca08bdeeef838ddf897a5f01f20bb93dc5a895cb86788ca8c00a7664899bc310"
	vecKe            = "c8882a8ab30c878467822534138c704ede0ab1e873fe03b601a7908463fec87a"
	vecMx            = "dde2878117d69745be4f916a2dd14269d783d1d788c603bb8746beabbd1dbbbc"
	vecNx            = "92118478b75c21c2c59340c842b5bce560a535f60bc37a75fe390d738c58d8e8"
	vecINonce        = "13f4602a16daeb69712263b9c46cba31"
	vecRNonce        = "3d0cfb011ca916d796f7029ff0b43393"
	vecIAuth         = "787d1189b526448d2901e7f6c22775ce514fce52fc886c1e924f2fbb8d97b210"
	vecRAuth         = "43509ef7137d8c2fbe66d802ae09dedd94d41b8cbfafb4954782014ff4a3f91c"
)

func unhex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	require.NoError(t, err)
	return b
}

// pointFromX rebuilds a point from its x coordinate. Only x coordinates
// enter the key schedule, so the choice of y is irrelevant.
func pointFromX(t *testing.T, x string) *ecdh.PublicKey {
	t.Helper()
	pub, err := bootstrap.P256.DecodePoint(append([]byte{0x02}, unhex(t, x)...))
	require.NoError(t, err)
	return pub
}

func TestKeyScheduleVectors(t *testing.T) {
	curve := bootstrap.P256

	br, err := curve.ECDH().NewPrivateKey(unhex(t, vecRBootPrivate))
	require.NoError(t, err)
	pr, err := curve.ECDH().NewPrivateKey(unhex(t, vecRProtoPrivate))
	require.NoError(t, err)

	assert.Equal(t, vecRBootPublic, hex.EncodeToString(curve.X(br.PublicKey())))
	assert.Equal(t, vecRProtoPublic, hex.EncodeToString(curve.X(pr.PublicKey())))

	pi := pointFromX(t, vecIProtoPublic)

	mx, err := br.ECDH(pi)
	require.NoError(t, err)
	assert.Equal(t, vecMx, hex.EncodeToString(mx))

	nx, err := pr.ECDH(pi)
	require.NoError(t, err)
	assert.Equal(t, vecNx, hex.EncodeToString(nx))

	assert.Equal(t, vecK1, hex.EncodeToString(DeriveK1(curve, mx)))
	assert.Equal(t, vecK2, hex.EncodeToString(DeriveK2(curve, nx)))

	inonce := unhex(t, vecINonce)
	rnonce := unhex(t, vecRNonce)
	assert.Equal(t, vecKe, hex.EncodeToString(DeriveKe(curve, inonce, rnonce, mx, nx, nil)))

	rauth := ResponderAuthTag(curve, inonce, rnonce, pi, pr.PublicKey(), nil, br.PublicKey())
	assert.Equal(t, vecRAuth, hex.EncodeToString(rauth))

	iauth := InitiatorAuthTag(curve, rnonce, inonce, pr.PublicKey(), pi, br.PublicKey(), nil)
	assert.Equal(t, vecIAuth, hex.EncodeToString(iauth))
}

func TestMutualLAgreement(t *testing.T) {
	for _, curve := range []*bootstrap.Curve{bootstrap.P256, bootstrap.P384, bootstrap.P521} {
		t.Run(curve.Name, func(t *testing.T) {
			gen := func() *ecdh.PrivateKey {
				k, err := curve.ECDH().GenerateKey(rand.Reader)
				require.NoError(t, err)
				return k
			}
			bi, br, pr := gen(), gen(), gen()

			lr, err := ResponderL(curve, br, pr, bi.PublicKey())
			require.NoError(t, err)
			li, err := InitiatorL(curve, bi, br.PublicKey(), pr.PublicKey())
			require.NoError(t, err)

			assert.Equal(t, lr, li)
			assert.Len(t, lr, curve.Size())
		})
	}
}
