package facematch

import "github.com/kozaktomas/face-recall/internal/database"

// Identity is the read-only projection of one person's samples the matcher scores against.
type Identity struct {
	PersonID   string
	Embeddings [][]float32
}

// IdentitiesFromPeople projects people into identities, skipping people without samples.
func IdentitiesFromPeople(people []database.Person) []Identity {
	identities := make([]Identity, 0, len(people))
	for _, p := range people {
		if !p.HasSamples() {
			continue
		}
		embs := make([][]float32, len(p.Samples))
		for i, s := range p.Samples {
			embs[i] = s.Embedding
		}
		identities = append(identities, Identity{PersonID: p.ID, Embeddings: embs})
	}
	return identities
}

// FilterIdentities keeps only identities whose person is in ids, preserving order.
func FilterIdentities(identities []Identity, ids []string) []Identity {
	keep := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		keep[id] = struct{}{}
	}
	out := make([]Identity, 0, len(ids))
	for _, ident := range identities {
		if _, ok := keep[ident.PersonID]; ok {
			out = append(out, ident)
		}
	}
	return out
}
