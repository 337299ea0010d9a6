package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// 集成测试辅助函数
// 测试针对一个已经启动的服务（make run 或 docker compose up），
// 地址由LABINV_TEST_BASE_URL指定，服务不可达时跳过

// Timeout HTTP请求超时时间
const Timeout = 10 * time.Second

var (
	baseOnce sync.Once
	baseURL  string
	baseErr  error
)

// BaseURL API基础URL，服务不可达时跳过当前测试
func BaseURL(t *testing.T) string {
	t.Helper()
	baseOnce.Do(func() {
		root := strings.TrimRight(os.Getenv("LABINV_TEST_BASE_URL"), "/")
		if root == "" {
			root = "http://localhost:8080"
		}
		client := &http.Client{Timeout: 2 * time.Second}
		resp, err := client.Get(root + "/ping")
		if err != nil {
			baseErr = err
			return
		}
		_ = resp.Body.Close()
		baseURL = root + "/api/v1"
	})
	if baseErr != nil {
		t.Skipf("服务不可达，跳过集成测试: %v", baseErr)
	}
	return baseURL
}

// Response 统一响应结构
type Response struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// LoginData 登录响应数据
type LoginData struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// ItemData 库存物品
type ItemData struct {
	ID           uint   `json:"id"`
	ProductName  string `json:"product_name"`
	CurrentStock string `json:"current_stock"`
	Unit         string `json:"unit"`
}

// DoJSON 发送请求并解析统一响应
func DoJSON(t *testing.T, method, url string, data interface{}, token string) *Response {
	t.Helper()
	resp, err := Send(method, url, data, token)
	require.NoError(t, err)
	return resp
}

// Send 发送请求并解析统一响应，不依赖*testing.T，可在goroutine中使用
func Send(method, url string, data interface{}, token string) (*Response, error) {
	var body io.Reader
	if data != nil {
		jsonData, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("JSON序列化失败: %w", err)
		}
		body = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequest(method, url, body)
	if err != nil {
		return nil, fmt.Errorf("创建HTTP请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	client := &http.Client{Timeout: Timeout}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("发送HTTP请求失败: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("读取响应体失败: %w", err)
	}

	var result Response
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("解析JSON响应失败: %s", string(raw))
	}
	return &result, nil
}

// UniqueName 带时间戳的唯一名称，重复运行不冲突
func UniqueName(prefix string) string {
	return fmt.Sprintf("%s_%d", prefix, time.Now().UnixNano())
}

// RegisterTestUser 注册并登录，返回Access Token
func RegisterTestUser(t *testing.T) (username, token string) {
	t.Helper()
	base := BaseURL(t)
	username = UniqueName("it")

	resp := DoJSON(t, http.MethodPost, base+"/users/register", map[string]string{
		"username": username, "password": "Test12345", "display_name": "集成测试",
	}, "")
	require.Equal(t, 0, resp.Code, "注册失败: %s", resp.Message)

	resp = DoJSON(t, http.MethodPost, base+"/users/login", map[string]string{
		"username": username, "password": "Test12345",
	}, "")
	require.Equal(t, 0, resp.Code, "登录失败: %s", resp.Message)

	var data LoginData
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	return username, data.AccessToken
}

// CreateTestItem 创建库存物品
func CreateTestItem(t *testing.T, token, descriptor string) ItemData {
	t.Helper()
	resp := DoJSON(t, http.MethodPost, BaseURL(t)+"/storage", map[string]string{
		"类型": "试剂", "产品名": UniqueName("乙醇"), "数量及数量单位": descriptor, "存放地": "集成测试柜",
	}, token)
	require.Equal(t, 0, resp.Code, "创建物品失败: %s", resp.Message)

	var item ItemData
	require.NoError(t, json.Unmarshal(resp.Data, &item))
	return item
}
