package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// GroupAlias is an alternate name/url that resolves to a group. Every group
// has a canonical alias whose URL equals the group's URL; older aliases keep
// renamed or merged groups reachable.
type GroupAlias struct {
	ID      primitive.ObjectID `bson:"_id" json:"id"`
	AliasOf primitive.ObjectID `bson:"alias_of" json:"alias_of"`
	Name    string             `bson:"name" json:"name"`
	NameCI  string             `bson:"name_ci" json:"-"`
	URL     string             `bson:"url" json:"url"`
}
