package mongodb

import (
	"time"

	"github.com/phrazzld/candidate-api/internal/domain"
	"go.mongodb.org/mongo-driver/v2/bson"
)

type userDocument struct {
	ID             bson.ObjectID `bson:"_id,omitempty"`
	Email          string        `bson:"email"`
	HashedPassword string        `bson:"hashed_password"`
	CreatedAt      time.Time     `bson:"created_at"`
}

func newUserDocument(u *domain.User) userDocument {
	return userDocument{
		Email:          u.Email,
		HashedPassword: u.HashedPassword,
		CreatedAt:      u.CreatedAt,
	}
}

func (d userDocument) toDomain() *domain.User {
	return &domain.User{
		ID:             d.ID.Hex(),
		Email:          d.Email,
		HashedPassword: d.HashedPassword,
		CreatedAt:      d.CreatedAt,
	}
}

// candidateDocument stores the verification token as a nullable field;
// a verified candidate has a null token.
type candidateDocument struct {
	ID                bson.ObjectID `bson:"_id,omitempty"`
	Name              string        `bson:"name"`
	Email             string        `bson:"email"`
	Experience        int           `bson:"experience"`
	IsVerified        bool          `bson:"is_verified"`
	VerificationToken *string       `bson:"verification_token"`
	CreatedAt         time.Time     `bson:"created_at"`
	UpdatedAt         time.Time     `bson:"updated_at"`
}

func newCandidateDocument(c *domain.Candidate) candidateDocument {
	doc := candidateDocument{
		Name:       c.Name,
		Email:      c.Email,
		Experience: c.Experience,
		IsVerified: c.IsVerified,
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
	}
	if c.VerificationToken != "" {
		token := c.VerificationToken
		doc.VerificationToken = &token
	}
	return doc
}

func (d candidateDocument) toDomain() *domain.Candidate {
	c := &domain.Candidate{
		ID:         d.ID.Hex(),
		Name:       d.Name,
		Email:      d.Email,
		Experience: d.Experience,
		IsVerified: d.IsVerified,
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
	}
	if d.VerificationToken != nil {
		c.VerificationToken = *d.VerificationToken
	}
	return c
}

// candidateUpdateSet builds the $set document for a partial update.
func candidateUpdateSet(u domain.CandidateUpdate, now time.Time) bson.M {
	set := bson.M{"updated_at": now}
	if u.Name != nil {
		set["name"] = *u.Name
	}
	if u.Email != nil {
		set["email"] = *u.Email
	}
	if u.Experience != nil {
		set["experience"] = *u.Experience
	}
	return set
}
