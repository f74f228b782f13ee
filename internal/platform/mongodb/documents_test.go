package mongodb

import (
	"testing"
	"time"

	"github.com/phrazzld/candidate-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func TestCandidateDocumentToken(t *testing.T) {
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	unverified := &domain.Candidate{Name: "John", Email: "john@example.com", VerificationToken: "tok", CreatedAt: now}
	doc := newCandidateDocument(unverified)
	require.NotNil(t, doc.VerificationToken)
	assert.Equal(t, "tok", *doc.VerificationToken)

	verified := &domain.Candidate{Name: "John", Email: "john@example.com", IsVerified: true}
	assert.Nil(t, newCandidateDocument(verified).VerificationToken)

	doc.ID = bson.NewObjectID()
	back := doc.toDomain()
	assert.Equal(t, doc.ID.Hex(), back.ID)
	assert.Equal(t, "tok", back.VerificationToken)
	assert.Equal(t, now, back.CreatedAt)
}

func TestCandidateDocumentBSONFieldNames(t *testing.T) {
	doc := newCandidateDocument(&domain.Candidate{Name: "John", Email: "john@example.com", Experience: 3})

	data, err := bson.Marshal(doc)
	require.NoError(t, err)

	var raw bson.M
	require.NoError(t, bson.Unmarshal(data, &raw))
	assert.NotContains(t, raw, "_id", "an unset id is left to the server")
	assert.Contains(t, raw, "verification_token")
	assert.Nil(t, raw["verification_token"])
	assert.EqualValues(t, 3, raw["experience"])
	assert.Equal(t, false, raw["is_verified"])
}

func TestCandidateUpdateSet(t *testing.T) {
	now := time.Now().UTC()
	name := "Jane"
	exp := 7

	set := candidateUpdateSet(domain.CandidateUpdate{Name: &name, Experience: &exp}, now)

	assert.Equal(t, bson.M{"name": "Jane", "experience": 7, "updated_at": now}, set)
}

func TestUserDocumentRoundTrip(t *testing.T) {
	u := &domain.User{Email: "john@example.com", HashedPassword: "hash", CreatedAt: time.Now().UTC()}
	doc := newUserDocument(u)
	doc.ID = bson.NewObjectID()

	back := doc.toDomain()
	assert.Equal(t, doc.ID.Hex(), back.ID)
	assert.Equal(t, u.Email, back.Email)
	assert.Equal(t, u.HashedPassword, back.HashedPassword)
}
