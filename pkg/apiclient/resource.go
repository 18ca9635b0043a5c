package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/automationhub/console/pkg/qs"
)

// ListResponse is one page of a collection endpoint.
type ListResponse[T any] struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

// Resource is a collection endpoint such as teams/ with records of type T.
type Resource[T any] struct {
	client *Client
	path   string
}

func NewResource[T any](c *Client, path string) *Resource[T] {
	path = strings.Trim(path, "/") + "/"
	return &Resource[T]{client: c, path: path}
}

func (r *Resource[T]) Path() string {
	return r.path
}

func (r *Resource[T]) detailPath(id int) string {
	return fmt.Sprintf("%s%d/", r.path, id)
}

func (r *Resource[T]) subPath(id int, sub string) string {
	return r.detailPath(id) + strings.Trim(sub, "/") + "/"
}

// Read lists the collection, params become the query string.
func (r *Resource[T]) Read(ctx context.Context, params qs.Params) (*ListResponse[T], error) {
	return ReadList[T](ctx, r.client, r.path, params)
}

func (r *Resource[T]) ReadDetail(ctx context.Context, id int) (*T, error) {
	var out T
	if err := r.client.do(ctx, http.MethodGet, r.detailPath(id), "", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *Resource[T]) Create(ctx context.Context, payload any) (*T, error) {
	var out T
	if err := r.client.do(ctx, http.MethodPost, r.path, "", payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *Resource[T]) Update(ctx context.Context, id int, payload any) (*T, error) {
	var out T
	if err := r.client.do(ctx, http.MethodPatch, r.detailPath(id), "", payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *Resource[T]) Destroy(ctx context.Context, id int) error {
	return r.client.do(ctx, http.MethodDelete, r.detailPath(id), "", nil, nil)
}

// Associate links relatedID into the sub collection of record id.
func (r *Resource[T]) Associate(ctx context.Context, id int, sub string, relatedID int) error {
	return r.client.do(ctx, http.MethodPost, r.subPath(id, sub), "", map[string]any{"id": relatedID}, nil)
}

// Disassociate unlinks relatedID from the sub collection of record id.
func (r *Resource[T]) Disassociate(ctx context.Context, id int, sub string, relatedID int) error {
	return r.client.do(ctx, http.MethodPost, r.subPath(id, sub), "", map[string]any{
		"id":           relatedID,
		"disassociate": true,
	}, nil)
}

// SubPath returns the path of a sub collection, for use with ReadList.
func (r *Resource[T]) SubPath(id int, sub string) string {
	return r.subPath(id, sub)
}

// ReadList reads any collection endpoint.
func ReadList[T any](ctx context.Context, c *Client, path string, params qs.Params) (*ListResponse[T], error) {
	var out ListResponse[T]
	if err := c.do(ctx, http.MethodGet, path, qs.Encode(params), nil, &out); err != nil {
		return nil, err
	}
	if out.Results == nil {
		out.Results = []T{}
	}
	return &out, nil
}

// CreateUserRole grants roleID to a user.
func (c *Client) CreateUserRole(ctx context.Context, userID, roleID int) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("users/%d/roles/", userID), "", map[string]any{"id": roleID}, nil)
}

// CreateTeamRole grants roleID to a team.
func (c *Client) CreateTeamRole(ctx context.Context, teamID, roleID int) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("teams/%d/roles/", teamID), "", map[string]any{"id": roleID}, nil)
}
