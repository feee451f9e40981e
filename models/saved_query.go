package models

import (
	"github.com/amankumarsingh77/solr_query/pkg/solrquery"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SavedQuery is a named query definition kept for reuse.
type SavedQuery struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Expr        *solrquery.Expr    `bson:"expr" json:"expr"`
	CreatedAt   primitive.DateTime `bson:"created_at" json:"created_at"`
	UpdatedAt   primitive.DateTime `bson:"updated_at" json:"updated_at"`
}
