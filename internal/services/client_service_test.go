package services

import (
	"context"
	"testing"

	"billing-backend/internal/billing"
	"billing-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateClientValidation(t *testing.T) {
	svc := NewClientService(newMemClients(), nil)

	tests := []struct {
		name string
		req  models.ClientRequest
		want []string
	}{
		{"missing everything", models.ClientRequest{}, []string{"name is required", "email is required"}},
		{"bad email", models.ClientRequest{Name: "Meghna Agro", Email: "not-an-email"}, []string{"email is not a valid address"}},
		{"display name form", models.ClientRequest{Name: "Meghna Agro", Email: "Meghna <ops@meghna.test>"}, []string{"email is not a valid address"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateClient(context.Background(), &tt.req)
			var verr *billing.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.want, verr.Messages)
		})
	}
}

func TestClientLifecycle(t *testing.T) {
	clients := newMemClients()
	svc := NewClientService(clients, nil)
	ctx := context.Background()

	c, err := svc.CreateClient(ctx, &models.ClientRequest{Name: " Meghna Agro ", Email: "ops@meghna.test", Phone: "+8801711000000"})
	require.NoError(t, err)
	assert.Equal(t, "Meghna Agro", c.Name)
	assert.NotEmpty(t, c.ID)

	_, err = svc.CreateClient(ctx, &models.ClientRequest{Name: "Copy", Email: "ops@meghna.test"})
	assert.Equal(t, billing.KindValidation, billing.KindOf(err))

	updated, err := svc.UpdateClient(ctx, c.ID, &models.ClientRequest{Name: "Meghna Agro Ltd", Email: "billing@meghna.test"})
	require.NoError(t, err)
	assert.Equal(t, "Meghna Agro Ltd", updated.Name)
	assert.Equal(t, "billing@meghna.test", updated.Email)

	_, err = svc.UpdateClient(ctx, "missing", &models.ClientRequest{Name: "X", Email: "x@y.test"})
	assert.Equal(t, billing.KindNotFound, billing.KindOf(err))

	clients.referenced[c.ID] = true
	err = svc.DeleteClient(ctx, c.ID)
	assert.Equal(t, billing.KindValidation, billing.KindOf(err))

	clients.referenced[c.ID] = false
	require.NoError(t, svc.DeleteClient(ctx, c.ID))
	_, err = svc.GetClient(ctx, c.ID)
	assert.Equal(t, billing.KindNotFound, billing.KindOf(err))
}
