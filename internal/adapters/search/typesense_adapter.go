package search

import (
	"context"
	"fmt"

	"github.com/typesense/typesense-go/v2/typesense/api"
	"github.com/typesense/typesense-go/v2/typesense/api/pointer"

	"github.com/clinicflow/frontdesk/internal/domain/entities"
	"github.com/clinicflow/frontdesk/internal/domain/providers"
	tsclient "github.com/clinicflow/frontdesk/internal/infrastructure/clients/typesense"
)

// TypesenseAdapter implements patient search using Typesense
type TypesenseAdapter struct {
	client *tsclient.Client
}

var _ providers.PatientSearchProvider = (*TypesenseAdapter)(nil)

// NewTypesenseAdapter creates a new Typesense adapter
func NewTypesenseAdapter(client *tsclient.Client) *TypesenseAdapter {
	return &TypesenseAdapter{client: client}
}

// EnsureCollection creates the patients collection if it does not exist
func (a *TypesenseAdapter) EnsureCollection(ctx context.Context) error {
	_, err := a.client.Client().Collection(tsclient.PatientsCollection).Retrieve(ctx)
	if err == nil {
		return nil // Collection exists
	}

	schema := &api.CollectionSchema{
		Name: tsclient.PatientsCollection,
		Fields: []api.Field{
			{Name: "id", Type: "string"},
			{Name: "patient_id", Type: "string"},
			{Name: "name", Type: "string"},
			{Name: "phone", Type: "string", Optional: pointer.True()},
			{Name: "current_status", Type: "string", Facet: pointer.True()},
			{Name: "created_at", Type: "int64"},
		},
		DefaultSortingField: pointer.String("created_at"),
	}

	_, err = a.client.Client().Collections().Create(ctx, schema)
	if err != nil {
		return fmt.Errorf("failed to create typesense collection: %w", err)
	}

	return nil
}

// DropCollection deletes the patients collection. Used by the indexer's
// reset mode before a full rebuild.
func (a *TypesenseAdapter) DropCollection(ctx context.Context) error {
	_, err := a.client.Client().Collection(tsclient.PatientsCollection).Delete(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete typesense collection: %w", err)
	}
	return nil
}

// IndexPatient upserts a patient document into the index
func (a *TypesenseAdapter) IndexPatient(ctx context.Context, patient *entities.Patient) error {
	document := map[string]interface{}{
		"id":             patient.ID,
		"patient_id":     patient.PatientID,
		"name":           patient.Name,
		"phone":          patient.Phone,
		"current_status": string(patient.CurrentStatus),
		"created_at":     patient.CreatedAt.Unix(),
	}

	_, err := a.client.Client().Collection(tsclient.PatientsCollection).Documents().Upsert(ctx, document)
	if err != nil {
		return fmt.Errorf("failed to index patient: %w", err)
	}

	return nil
}

// RemovePatient deletes a patient document from the index
func (a *TypesenseAdapter) RemovePatient(ctx context.Context, id string) error {
	_, err := a.client.Client().Collection(tsclient.PatientsCollection).Document(id).Delete(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete patient from index: %w", err)
	}
	return nil
}

// Search returns ids of patients matching the query, best match first
func (a *TypesenseAdapter) Search(ctx context.Context, query string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 20
	}

	searchParams := &api.SearchCollectionParams{
		Q:       pointer.String(query),
		QueryBy: pointer.String("name,patient_id,phone"),
		PerPage: pointer.Int(limit),
	}

	result, err := a.client.Client().Collection(tsclient.PatientsCollection).Documents().Search(ctx, searchParams)
	if err != nil {
		return nil, fmt.Errorf("failed to search patients: %w", err)
	}

	var ids []string
	if result.Hits == nil {
		return ids, nil
	}
	for _, hit := range *result.Hits {
		doc := *hit.Document
		if id, ok := doc["id"].(string); ok {
			ids = append(ids, id)
		}
	}

	return ids, nil
}
