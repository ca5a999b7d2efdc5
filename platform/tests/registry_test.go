package tests

import (
	"errors"
	"fmt"
	"testing"
)

func TestProductionRequestsOverHttp(t *testing.T) {
	env := setupTestEnv(t)

	admin, err := env.adminClient()
	if err != nil {
		t.Fatal(err)
	}
	worker, err := env.newUser("maria")
	if err != nil {
		t.Fatal(err)
	}

	productId, err := admin.createProduct("Cesto", 0, []string{"P", "M"})
	if err != nil {
		t.Fatal(err)
	}

	var request map[string]interface{}
	err = admin.Post("/registry/requests").Json(map[string]interface{}{
		"product_id":         productId,
		"variant_quantities": map[string]int{"P": 10, "M": 5},
		"notes":              "reposição antes da feira",
	}).Do(&request)
	if err != nil {
		t.Fatal(err)
	}
	if request["Status"] != "open" {
		t.Fatalf("unexpected request: %v", request)
	}

	// workers see open requests but cannot create or close them
	var requests []map[string]interface{}
	if err := worker.Get("/registry/requests").Do(&requests); err != nil {
		t.Fatal(err)
	}
	if len(requests) != 1 || requests[0]["Notes"] != "reposição antes da feira" {
		t.Fatalf("unexpected requests: %v", requests)
	}

	err = worker.Post("/registry/requests").Json(map[string]interface{}{
		"product_id": productId, "quantity": 1,
	}).Do(nil)
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	requestId := request["Id"].(string)
	if err := admin.Post(fmt.Sprintf("/registry/requests/%v/close", requestId)).Do(nil); err != nil {
		t.Fatal(err)
	}

	if err := worker.Get("/registry/requests").Do(&requests); err != nil {
		t.Fatal(err)
	}
	if requests[0]["Status"] != "closed" {
		t.Fatalf("expected closed request, got %v", requests[0]["Status"])
	}
}

func TestProductionRequestValidation(t *testing.T) {
	env := setupTestEnv(t)

	admin, err := env.adminClient()
	if err != nil {
		t.Fatal(err)
	}

	productId, err := admin.createProduct("Cesto", 0, nil)
	if err != nil {
		t.Fatal(err)
	}

	err = admin.Post("/registry/requests").Json(map[string]interface{}{
		"product_id": productId, "quantity": 0,
	}).Do(nil)
	if err == nil {
		t.Fatal("expected error for empty request")
	}

	err = admin.Post("/registry/requests").Json(map[string]interface{}{
		"product_id": "719e0dcd-60b3-4a79-b372-8a69c1e7a86c", "quantity": 3,
	}).Do(nil)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown product, got %v", err)
	}
}
