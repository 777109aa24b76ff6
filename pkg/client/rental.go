package client

import (
	"bikerent/pkg/model"
	"context"
	"fmt"
	"net/url"

	jsoniter "github.com/json-iterator/go"
)

type RentalClient struct {
	httpClient *HttpClient
}

func NewRentalClient(baseUrl string) *RentalClient {
	return &RentalClient{
		httpClient: NewHttpClient(baseUrl),
	}
}

func (c *RentalClient) Create(ctx context.Context, req *model.RentalRequest) (*Response, error) {
	return c.httpClient.POST(ctx, "/api/v1/rentals", req)
}

func (c *RentalClient) CreateWithIdempotencyKey(ctx context.Context, req *model.RentalRequest, key string) (*Response, error) {
	return c.httpClient.POSTWithHeaders(ctx, "/api/v1/rentals", req, map[string]string{
		"Idempotency-Key": key,
	})
}

func (c *RentalClient) Return(ctx context.Context, id string, req *model.ReturnRequest) (*Response, error) {
	path := "/api/v1/rentals/id/" + url.PathEscape(id) + "/return"
	return c.httpClient.PATCH(ctx, path, req)
}

func (c *RentalClient) GetByID(ctx context.Context, id string) (*Response, error) {
	path := "/api/v1/rentals/id/" + url.PathEscape(id)
	return c.httpClient.GET(ctx, path)
}

// Search lists rentals matching the given serial and/or tax id; empty values are omitted.
func (c *RentalClient) Search(ctx context.Context, serial, taxID string, limit int, offset int64) (*Response, error) {
	q := url.Values{}
	if serial != "" {
		q.Set("serial", serial)
	}
	if taxID != "" {
		q.Set("tax_id", taxID)
	}
	q.Set("limit", fmt.Sprintf("%d", limit))
	q.Set("offset", fmt.Sprintf("%d", offset))

	return c.httpClient.GET(ctx, "/api/v1/rentals?"+q.Encode())
}

func (c *RentalClient) ListByRenter(ctx context.Context, renterID string, limit int, offset int64) (*Response, error) {
	path := fmt.Sprintf(
		"/api/v1/renters/%s/rentals?limit=%d&offset=%d",
		url.PathEscape(renterID),
		limit,
		offset,
	)
	return c.httpClient.GET(ctx, path)
}

func (c *RentalClient) DecodeRental(resp *Response) (*model.Rental, error) {
	var wrapper struct {
		Data jsoniter.RawMessage `json:"data"`
	}

	if err := json.Unmarshal(resp.Body, &wrapper); err != nil {
		return nil, fmt.Errorf("could not decode rental wrapper:\n%s\n%w", resp.ToString(), err)
	}

	var rental model.Rental
	if err := json.Unmarshal(wrapper.Data, &rental); err != nil {
		return nil, fmt.Errorf("could not decode rental json:\n%s\n%w", resp.ToString(), err)
	}

	return &rental, nil
}

func (c *RentalClient) DecodeRentals(resp *Response) ([]*model.Rental, *Metadata, error) {
	var wrapper struct {
		Data jsoniter.RawMessage `json:"data"`
		Metadata
	}

	if err := json.Unmarshal(resp.Body, &wrapper); err != nil {
		return nil, nil, fmt.Errorf("could not decode paginated resp:\n%s\n%w", resp.ToString(), err)
	}

	var rentals []*model.Rental
	if err := json.Unmarshal(wrapper.Data, &rentals); err != nil {
		return nil, nil, fmt.Errorf("could not decode rental list:\n%s\n%w", resp.ToString(), err)
	}

	metadata := wrapper.Metadata
	return rentals, &metadata, nil
}
