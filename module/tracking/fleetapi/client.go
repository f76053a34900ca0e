// Package fleetapi is the HTTP client for the fleet-management
// application, which owns vehicle/route/driver CRUD and notification
// delivery. This subsystem only reads from it.
package fleetapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sultan1coder/BUS-ROUTE-sub000/module/tracking/domain"
)

var (
	_ domain.VehicleDirectory = (*Client)(nil)
	_ domain.RouteDirectory   = (*Client)(nil)
	_ domain.Notifier         = (*Client)(nil)
)

type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 5 * time.Second},
	}
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("fleet api: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return domain.NewNotFoundError("resource", path)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fleet api: unexpected status %d for %s", resp.StatusCode, path)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) post(ctx context.Context, path string, body any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("fleet api: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("fleet api: unexpected status %d for %s", resp.StatusCode, path)
	}
	return nil
}

func (c *Client) Vehicle(ctx context.Context, id string) (*domain.Vehicle, error) {
	var v domain.Vehicle
	if err := c.get(ctx, "/api/vehicles/"+url.PathEscape(id), &v); err != nil {
		if domain.IsNotFound(err) {
			return nil, domain.NewNotFoundError("vehicle", id)
		}
		return nil, err
	}
	return &v, nil
}

func (c *Client) ActiveVehicles(ctx context.Context, schoolID string) ([]domain.Vehicle, error) {
	path := "/api/vehicles?active=true"
	if schoolID != "" {
		path += "&school_id=" + url.QueryEscape(schoolID)
	}

	var vehicles []domain.Vehicle
	if err := c.get(ctx, path, &vehicles); err != nil {
		return nil, err
	}
	return vehicles, nil
}

func (c *Client) ActiveDriver(ctx context.Context, vehicleID string) (string, error) {
	var session struct {
		DriverID string `json:"driver_id"`
	}
	err := c.get(ctx, "/api/vehicles/"+url.PathEscape(vehicleID)+"/driver-session", &session)
	if domain.IsNotFound(err) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return session.DriverID, nil
}

func (c *Client) ActiveRoute(ctx context.Context, vehicleID string) (*domain.Route, error) {
	var route domain.Route
	if err := c.get(ctx, "/api/vehicles/"+url.PathEscape(vehicleID)+"/route", &route); err != nil {
		if domain.IsNotFound(err) {
			return nil, domain.NewNotFoundError("active route", vehicleID)
		}
		return nil, err
	}
	return &route, nil
}

func (c *Client) NotifyGeofence(ctx context.Context, alert *domain.GeofenceAlert) error {
	return c.post(ctx, "/api/notifications/geofence", alert)
}

func (c *Client) NotifySpeed(ctx context.Context, v *domain.SpeedViolation) error {
	return c.post(ctx, "/api/notifications/speed", v)
}
