package handler

import (
	"net/http"
	"testing"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/bitfantasy/nimo-mes/internal/mes/repository"
	"github.com/bitfantasy/nimo-mes/internal/mes/service"
	"github.com/bitfantasy/nimo-mes/internal/mes/testutil"
)

func setupBuildHandlerTest(t *testing.T) (*testutil.TestEnv, *gorm.DB) {
	t.Helper()
	db := testutil.SetupTestDB(t)

	repos := repository.NewRepositories(db)
	logger := zap.NewNop()
	costSvc := service.NewCostService(repos, logger)
	events := service.NewEventPublisher(nil, logger)
	buildSvc := service.NewBuildService(db, repos, costSvc, events, logger)
	exporter := service.NewPickListExporter(nil, "", logger)
	h := NewBuildOrderHandler(buildSvc, exporter)

	router := testutil.SetupRouter()
	api := testutil.AuthGroup(router, "/api/v1")
	api.POST("/build-orders", h.Create)
	api.GET("/build-orders/:id", h.Get)
	api.GET("/build-orders/:id/detail", h.GetDetail)
	api.GET("/build-orders/:id/pick-list", h.PickList)
	api.POST("/build-orders/:id/reserve", h.Reserve)
	api.POST("/build-orders/:id/start", h.Start)
	api.POST("/build-orders/:id/submit-qc", h.SubmitQC)
	api.POST("/build-orders/:id/complete", h.Complete)
	api.POST("/build-orders/:id/cancel", h.Cancel)

	return &testutil.TestEnv{DB: db, Router: router, T: t}, db
}

func seedBuildHandlerData(t *testing.T, db *gorm.DB) {
	t.Helper()
	testutil.SeedBomEntry(t, db, "widget-1", "comp-1", "C-001", 2)
	testutil.SeedInventory(t, db, "comp-1", "C-001", "loc-a", 20, 0)
}

// TestBuildOrderLifecycleHTTP 走完整生命周期：创建→预留→开工→送检→完工
func TestBuildOrderLifecycleHTTP(t *testing.T) {
	env, db := setupBuildHandlerTest(t)
	token := testutil.DefaultTestToken()
	seedBuildHandlerData(t, db)

	// 创建
	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/build-orders", map[string]interface{}{
		"product_id":   "widget-1",
		"product_code": "WIDGET",
		"quantity":     5,
	}, token)
	if w.Code != http.StatusOK {
		t.Fatalf("创建返回 %d: %s", w.Code, w.Body.String())
	}
	resp := testutil.ParseResponse(w)
	data := resp["data"].(map[string]interface{})
	orderID := data["id"].(string)
	if data["status"] != "planned" {
		t.Fatalf("初始状态 = %v, want planned", data["status"])
	}

	// 预留
	w = testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/build-orders/"+orderID+"/reserve", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("预留返回 %d: %s", w.Code, w.Body.String())
	}
	resp = testutil.ParseResponse(w)
	if resp["data"].(map[string]interface{})["status"] != "materials_reserved" {
		t.Fatalf("预留后状态错误: %s", w.Body.String())
	}

	// 开工
	w = testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/build-orders/"+orderID+"/start", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("开工返回 %d: %s", w.Code, w.Body.String())
	}

	// 送检
	w = testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/build-orders/"+orderID+"/submit-qc",
		map[string]interface{}{"notes": "首件送检"}, token)
	if w.Code != http.StatusOK {
		t.Fatalf("送检返回 %d: %s", w.Code, w.Body.String())
	}

	// 完工
	w = testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/build-orders/"+orderID+"/complete",
		map[string]interface{}{"qc_passed": 4, "qc_failed": 1}, token)
	if w.Code != http.StatusOK {
		t.Fatalf("完工返回 %d: %s", w.Code, w.Body.String())
	}
	resp = testutil.ParseResponse(w)
	order := resp["data"].(map[string]interface{})["order"].(map[string]interface{})
	if order["status"] != "complete" {
		t.Fatalf("完工后状态 = %v, want complete", order["status"])
	}
	if order["qc_passed"].(float64) != 4 {
		t.Errorf("qc_passed = %v, want 4", order["qc_passed"])
	}

	// 详情含流水
	w = testutil.DoRequest(env.Router, http.MethodGet, "/api/v1/build-orders/"+orderID+"/detail", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("详情返回 %d", w.Code)
	}
	resp = testutil.ParseResponse(w)
	detail := resp["data"].(map[string]interface{})
	txs := detail["transactions"].([]interface{})
	if len(txs) != 2 { // 预留 + 领料
		t.Errorf("流水条数 = %d, want 2", len(txs))
	}
}

func TestBuildOrderReserveShortageHTTP(t *testing.T) {
	env, db := setupBuildHandlerTest(t)
	token := testutil.DefaultTestToken()
	testutil.SeedBomEntry(t, db, "widget-1", "comp-1", "C-001", 2)
	testutil.SeedInventory(t, db, "comp-1", "C-001", "loc-a", 3, 0)

	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/build-orders", map[string]interface{}{
		"product_id":   "widget-1",
		"product_code": "WIDGET",
		"quantity":     5,
	}, token)
	resp := testutil.ParseResponse(w)
	orderID := resp["data"].(map[string]interface{})["id"].(string)

	w = testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/build-orders/"+orderID+"/reserve", nil, token)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("缺料应返回 422, got %d: %s", w.Code, w.Body.String())
	}
	resp = testutil.ParseResponse(w)
	if resp["code"].(float64) != 10005 {
		t.Errorf("code = %v, want 10005", resp["code"])
	}
	detail := resp["detail"].(map[string]interface{})
	shortages := detail["shortages"].([]interface{})
	if len(shortages) != 1 {
		t.Fatalf("缺料清单 = %d 项, want 1", len(shortages))
	}
	sh := shortages[0].(map[string]interface{})
	if sh["shortfall"].(float64) != 7 {
		t.Errorf("shortfall = %v, want 7", sh["shortfall"])
	}
}

func TestBuildOrderIllegalTransitionHTTP(t *testing.T) {
	env, db := setupBuildHandlerTest(t)
	token := testutil.DefaultTestToken()
	seedBuildHandlerData(t, db)

	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/build-orders", map[string]interface{}{
		"product_id":   "widget-1",
		"product_code": "WIDGET",
		"quantity":     2,
	}, token)
	resp := testutil.ParseResponse(w)
	orderID := resp["data"].(map[string]interface{})["id"].(string)

	// planned 直接开工应409
	w = testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/build-orders/"+orderID+"/start", nil, token)
	if w.Code != http.StatusConflict {
		t.Fatalf("非法流转应返回 409, got %d: %s", w.Code, w.Body.String())
	}
}

// TestBuildOrderCompleteOverQuantityHTTP 质检数量超过计划数量是调用方错误，
// 应返回 400 而不是 500
func TestBuildOrderCompleteOverQuantityHTTP(t *testing.T) {
	env, db := setupBuildHandlerTest(t)
	token := testutil.DefaultTestToken()
	seedBuildHandlerData(t, db)

	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/build-orders", map[string]interface{}{
		"product_id":   "widget-1",
		"product_code": "WIDGET",
		"quantity":     2,
	}, token)
	resp := testutil.ParseResponse(w)
	orderID := resp["data"].(map[string]interface{})["id"].(string)

	for _, step := range []string{"reserve", "start", "submit-qc"} {
		w = testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/build-orders/"+orderID+"/"+step, nil, token)
		if w.Code != http.StatusOK {
			t.Fatalf("%s 返回 %d: %s", step, w.Code, w.Body.String())
		}
	}

	w = testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/build-orders/"+orderID+"/complete",
		map[string]interface{}{"qc_passed": 3, "qc_failed": 0}, token)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("超量完工应返回 400, got %d: %s", w.Code, w.Body.String())
	}
	resp = testutil.ParseResponse(w)
	if resp["code"].(float64) != 10001 {
		t.Errorf("code = %v, want 10001", resp["code"])
	}
}

func TestBuildOrderNotFoundHTTP(t *testing.T) {
	env, _ := setupBuildHandlerTest(t)
	token := testutil.DefaultTestToken()

	w := testutil.DoRequest(env.Router, http.MethodGet,
		"/api/v1/build-orders/00000000-0000-0000-0000-000000000000", nil, token)
	if w.Code != http.StatusNotFound {
		t.Fatalf("不存在的订单应返回 404, got %d", w.Code)
	}
}

func TestBuildOrderUnauthorizedHTTP(t *testing.T) {
	env, _ := setupBuildHandlerTest(t)

	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/build-orders", map[string]interface{}{
		"product_id":   "widget-1",
		"product_code": "WIDGET",
		"quantity":     1,
	}, "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("无token应返回 401, got %d", w.Code)
	}
}

func TestPickListXlsxHTTP(t *testing.T) {
	env, db := setupBuildHandlerTest(t)
	token := testutil.DefaultTestToken()
	seedBuildHandlerData(t, db)

	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/build-orders", map[string]interface{}{
		"product_id":   "widget-1",
		"product_code": "WIDGET",
		"quantity":     5,
	}, token)
	resp := testutil.ParseResponse(w)
	orderID := resp["data"].(map[string]interface{})["id"].(string)

	testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/build-orders/"+orderID+"/reserve", nil, token)

	// JSON视图
	w = testutil.DoRequest(env.Router, http.MethodGet, "/api/v1/build-orders/"+orderID+"/pick-list", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("拣料单返回 %d: %s", w.Code, w.Body.String())
	}
	resp = testutil.ParseResponse(w)
	list := resp["data"].(map[string]interface{})
	if list["preview"].(bool) {
		t.Error("已预留订单的拣料单不应是预览")
	}
	lines := list["lines"].([]interface{})
	if len(lines) != 1 {
		t.Fatalf("拣料行 = %d, want 1", len(lines))
	}

	// xlsx下载
	w = testutil.DoRequest(env.Router, http.MethodGet,
		"/api/v1/build-orders/"+orderID+"/pick-list?format=xlsx", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("xlsx导出返回 %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet" {
		t.Errorf("Content-Type = %s", ct)
	}
	if w.Body.Len() == 0 {
		t.Error("xlsx内容为空")
	}
}
