package client

import (
	"context"
	"net/http"

	"github.com/tidwall/gjson"
)

const modelsPath = "/models"

// ListModels fetches the endpoint's model listing and returns the identifiers
// in the order the endpoint reported them. Listing failures propagate to the
// caller; unlike probing there is no partial result worth preserving.
func (c *Client) ListModels(ctx context.Context) ([]string, error) {
	data, err := c.do(ctx, http.MethodGet, modelsPath, nil)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0)
	gjson.GetBytes(data, "data").ForEach(func(_, value gjson.Result) bool {
		if id := value.Get("id").String(); id != "" {
			ids = append(ids, id)
		}
		return true
	})
	return ids, nil
}
