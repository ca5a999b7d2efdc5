package tests

import (
	"errors"
	"fmt"
	"testing"

	"nipeihu_platform/platform/schema"
)

func TestSignupAndLogin(t *testing.T) {
	env := setupTestEnv(t)

	user, err := env.newUser("maria")
	if err != nil {
		t.Fatal(err)
	}

	var info map[string]interface{}
	if err := user.Get("/user/info").Do(&info); err != nil {
		t.Fatal(err)
	}
	if info["username"] != "maria" {
		t.Fatalf("unexpected user info: %v", info)
	}
	if info["is_admin"] != false {
		t.Fatal("new users must not be admins")
	}
}

func TestLoginRejectsBadPassword(t *testing.T) {
	env := setupTestEnv(t)

	if _, err := env.newUser("maria"); err != nil {
		t.Fatal(err)
	}

	c := env.newClient()
	err := c.login(loginInfo{Email: "maria@mail.com", Password: "wrong_password"})
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestAdminEndpointsForbiddenForRegularUsers(t *testing.T) {
	env := setupTestEnv(t)

	user, err := env.newUser("maria")
	if err != nil {
		t.Fatal(err)
	}

	if err := user.Get("/user/list").Do(nil); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for /user/list, got %v", err)
	}
	if _, err := user.createProduct("Cesto", 1, nil); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for product create, got %v", err)
	}
	if err := user.Get("/payroll/report").Do(nil); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for payroll report, got %v", err)
	}
}

func TestPromoteAndDemoteAdmin(t *testing.T) {
	env := setupTestEnv(t)

	admin, err := env.adminClient()
	if err != nil {
		t.Fatal(err)
	}

	user, err := env.newUser("maria")
	if err != nil {
		t.Fatal(err)
	}

	if err := admin.promoteAdmin(user.userId); err != nil {
		t.Fatal(err)
	}
	if err := user.Get("/user/list").Do(nil); err != nil {
		t.Fatalf("promoted user should have admin access: %v", err)
	}

	if err := admin.Delete(fmt.Sprintf("/user/%v/admin", user.userId)).Do(nil); err != nil {
		t.Fatal(err)
	}
	if err := user.Get("/user/list").Do(nil); !errors.Is(err, ErrForbidden) {
		t.Fatalf("demoted user should be forbidden, got %v", err)
	}
}

func TestPasswordReset(t *testing.T) {
	env := setupTestEnv(t)

	if _, err := env.newUser("maria"); err != nil {
		t.Fatal(err)
	}

	c := env.newClient()
	var res map[string]string
	err := c.Post("/user/password-reset").Json(map[string]string{"email": "maria@mail.com"}).Do(&res)
	if err != nil {
		t.Fatal(err)
	}
	if res["reset_token"] == "" {
		t.Fatal("expected a reset token from the basic identity provider")
	}

	err = c.Post("/user/password-reset/confirm").Json(map[string]string{
		"reset_token": res["reset_token"], "new_password": "new_password123",
	}).Do(nil)
	if err != nil {
		t.Fatal(err)
	}

	if err := c.login(loginInfo{Email: "maria@mail.com", Password: "maria_password"}); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("old password should be rejected, got %v", err)
	}
	if err := c.login(loginInfo{Email: "maria@mail.com", Password: "new_password123"}); err != nil {
		t.Fatalf("new password should work: %v", err)
	}
}

func TestPasswordResetUnknownEmailDoesNotLeak(t *testing.T) {
	env := setupTestEnv(t)

	c := env.newClient()
	var res map[string]string
	err := c.Post("/user/password-reset").Json(map[string]string{"email": "ghost@mail.com"}).Do(&res)
	if err != nil {
		t.Fatal(err)
	}
	if res["reset_token"] != "" {
		t.Fatal("unknown emails must not yield reset tokens")
	}
}

func TestSquadMembership(t *testing.T) {
	env := setupTestEnv(t)

	admin, err := env.adminClient()
	if err != nil {
		t.Fatal(err)
	}
	user, err := env.newUser("maria")
	if err != nil {
		t.Fatal(err)
	}

	var created map[string]string
	if err := admin.Post("/squad/create").Json(map[string]string{"name": "tecelagem"}).Do(&created); err != nil {
		t.Fatal(err)
	}
	squadId := created["squad_id"]

	if err := admin.Post(fmt.Sprintf("/squad/%v/members/%v", squadId, user.userId)).Do(nil); err != nil {
		t.Fatal(err)
	}

	var members []map[string]interface{}
	if err := user.Get(fmt.Sprintf("/squad/%v/members", squadId)).Do(&members); err != nil {
		t.Fatal(err)
	}
	if len(members) != 1 || members[0]["username"] != "maria" {
		t.Fatalf("unexpected members: %v", members)
	}

	// a plain member cannot manage the squad
	other, err := env.newUser("zeca")
	if err != nil {
		t.Fatal(err)
	}
	err = user.Post(fmt.Sprintf("/squad/%v/members/%v", squadId, other.userId)).Do(nil)
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	// a promoted lead can
	if err := admin.Post(fmt.Sprintf("/squad/%v/members/%v/lead", squadId, user.userId)).Do(nil); err != nil {
		t.Fatal(err)
	}
	if err := user.Post(fmt.Sprintf("/squad/%v/members/%v", squadId, other.userId)).Do(nil); err != nil {
		t.Fatalf("squad lead should manage members: %v", err)
	}
}

func TestDeleteUserRemovesAccount(t *testing.T) {
	env := setupTestEnv(t)

	admin, err := env.adminClient()
	if err != nil {
		t.Fatal(err)
	}
	user, err := env.newUser("maria")
	if err != nil {
		t.Fatal(err)
	}

	if err := admin.setWorkerSettings(user.userId, map[string]interface{}{
		"payment_type": "fixed", "fixed_salary": "500", "active": true,
	}); err != nil {
		t.Fatal(err)
	}

	if err := admin.Delete(fmt.Sprintf("/user/%v", user.userId)).Do(nil); err != nil {
		t.Fatal(err)
	}

	// the issued token must stop resolving to an account
	err = user.Get("/user/info").Do(nil)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for deleted user token, got %v", err)
	}

	// and the credentials are gone with the row
	c := env.newClient()
	err = c.login(loginInfo{Email: "maria@mail.com", Password: "maria_password"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound logging in as deleted user, got %v", err)
	}

	var count int64
	if err := env.db.Model(&schema.WorkerSettings{}).Where("user_id = ?", user.userId).Count(&count).Error; err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Fatalf("expected worker settings to be deleted, found %d rows", count)
	}

	err = admin.Delete(fmt.Sprintf("/user/%v", user.userId)).Do(nil)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound deleting twice, got %v", err)
	}
}
