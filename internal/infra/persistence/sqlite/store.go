package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/LouYuanbo1/gridharvester/internal/domain/model"
	_ "modernc.org/sqlite"
)

var ErrRunNotFound = errors.New("run not found")

// Store 采集结果的本地存储:运行记录、主行、明细行
type Store struct {
	db   *sql.DB
	path string
}

func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("创建数据库目录失败: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("打开数据库失败: %w", err)
	}
	// sqlite 同一时刻只允许一个写连接
	db.SetMaxOpenConns(1)

	s := &Store{db: db, path: path}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("初始化表结构失败: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Path() string {
	return s.path
}

func (s *Store) initSchema() error {
	schema := `
	PRAGMA journal_mode=WAL;
	PRAGMA busy_timeout=5000;

	CREATE TABLE IF NOT EXISTS harvest_runs (
		run_id TEXT PRIMARY KEY,
		collected_for TEXT NOT NULL,
		state TEXT NOT NULL,
		success INTEGER NOT NULL,
		failed_codes_json TEXT NOT NULL,
		errors_json TEXT NOT NULL,
		started_at TEXT NOT NULL,
		finished_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_runs_collected_for ON harvest_runs(collected_for, started_at);

	CREATE TABLE IF NOT EXISTS mid_categories (
		collected_for TEXT NOT NULL,
		mid_code TEXT NOT NULL,
		mid_name TEXT NOT NULL,
		expected_qty INTEGER NOT NULL,
		ordinal INTEGER NOT NULL,
		skipped INTEGER NOT NULL DEFAULT 0,
		run_id TEXT NOT NULL,
		PRIMARY KEY (collected_for, mid_code)
	);

	CREATE TABLE IF NOT EXISTS mid_sales (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		collected_for TEXT NOT NULL,
		mid_code TEXT NOT NULL,
		mid_name TEXT NOT NULL,
		product_code TEXT NOT NULL,
		product_name TEXT NOT NULL,
		sales INTEGER NOT NULL,
		quantities_json TEXT NOT NULL,
		run_id TEXT NOT NULL,
		UNIQUE (collected_for, mid_code, product_code)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// SaveResult 保存一次运行。
// 成功完成的运行替换该日期已有的主行与明细;失败的运行只做 upsert,不删除之前完整的数据。
func (s *Store) SaveResult(ctx context.Context, result *model.HarvestResult, aggregateField string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("开启事务失败: %w", err)
	}
	defer tx.Rollback()

	failedJSON, err := json.Marshal(result.Reconciliation.FailedCodes)
	if err != nil {
		return fmt.Errorf("序列化失败编码失败: %w", err)
	}
	errorsJSON, err := json.Marshal(result.ErrorMessages())
	if err != nil {
		return fmt.Errorf("序列化错误信息失败: %w", err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO harvest_runs (run_id, collected_for, state, success, failed_codes_json, errors_json, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id) DO UPDATE SET
			state = excluded.state,
			success = excluded.success,
			failed_codes_json = excluded.failed_codes_json,
			errors_json = excluded.errors_json,
			finished_at = excluded.finished_at`,
		result.RunID, result.CollectedFor, string(result.State), result.Reconciliation.Success,
		string(failedJSON), string(errorsJSON),
		formatTime(result.StartedAt), formatTime(result.FinishedAt))
	if err != nil {
		return fmt.Errorf("写入运行记录失败: %w", err)
	}

	if result.State == model.StateDone {
		for _, table := range []string{"mid_categories", "mid_sales"} {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE collected_for = ?", result.CollectedFor); err != nil {
				return fmt.Errorf("清理 %s 旧数据失败: %w", table, err)
			}
		}
	}

	masterStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO mid_categories (collected_for, mid_code, mid_name, expected_qty, ordinal, skipped, run_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(collected_for, mid_code) DO UPDATE SET
			mid_name = excluded.mid_name,
			expected_qty = excluded.expected_qty,
			ordinal = excluded.ordinal,
			skipped = excluded.skipped,
			run_id = excluded.run_id`)
	if err != nil {
		return fmt.Errorf("准备主行写入失败: %w", err)
	}
	defer masterStmt.Close()
	for _, m := range result.Masters {
		if _, err := masterStmt.ExecContext(ctx, result.CollectedFor, m.Code, m.Name, m.ExpectedAggregate, m.Ordinal, m.Skipped, result.RunID); err != nil {
			return fmt.Errorf("写入主行 %s 失败: %w", m.Code, err)
		}
	}

	rowStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO mid_sales (collected_for, mid_code, mid_name, product_code, product_name, sales, quantities_json, run_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(collected_for, mid_code, product_code) DO UPDATE SET
			mid_name = excluded.mid_name,
			product_name = excluded.product_name,
			sales = excluded.sales,
			quantities_json = excluded.quantities_json,
			run_id = excluded.run_id`)
	if err != nil {
		return fmt.Errorf("准备明细写入失败: %w", err)
	}
	defer rowStmt.Close()
	for _, row := range result.Rows {
		quantities, err := json.Marshal(row.Quantities)
		if err != nil {
			return fmt.Errorf("序列化数值列失败: %w", err)
		}
		_, err = rowStmt.ExecContext(ctx, result.CollectedFor, row.MasterCode, row.MasterName,
			row.ProductID, row.ProductName, row.Quantity(aggregateField), string(quantities), result.RunID)
		if err != nil {
			return fmt.Errorf("写入明细 %s/%s 失败: %w", row.MasterCode, row.ProductID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("提交事务失败: %w", err)
	}
	return nil
}

// LoadRun 读取某个日期最近一次运行的记录,以及该日期当前保存的主行与明细
func (s *Store) LoadRun(ctx context.Context, collectedFor string) (*model.HarvestResult, error) {
	result := &model.HarvestResult{CollectedFor: collectedFor}

	var (
		state, failedJSON, errorsJSON, startedAt, finishedAt string
		success                                              bool
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT run_id, state, success, failed_codes_json, errors_json, started_at, finished_at
		FROM harvest_runs WHERE collected_for = ?
		ORDER BY started_at DESC LIMIT 1`, collectedFor).
		Scan(&result.RunID, &state, &success, &failedJSON, &errorsJSON, &startedAt, &finishedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, collectedFor)
	}
	if err != nil {
		return nil, fmt.Errorf("读取运行记录失败: %w", err)
	}
	result.State = model.RunState(state)
	result.Reconciliation.Success = success
	if err := json.Unmarshal([]byte(failedJSON), &result.Reconciliation.FailedCodes); err != nil {
		return nil, fmt.Errorf("解析失败编码失败: %w", err)
	}
	var messages []string
	if err := json.Unmarshal([]byte(errorsJSON), &messages); err != nil {
		return nil, fmt.Errorf("解析错误信息失败: %w", err)
	}
	for _, msg := range messages {
		result.Errors = append(result.Errors, errors.New(msg))
	}
	if result.StartedAt, err = parseTime(startedAt); err != nil {
		return nil, err
	}
	if result.FinishedAt, err = parseTime(finishedAt); err != nil {
		return nil, err
	}

	if result.Masters, err = s.loadMasters(ctx, collectedFor); err != nil {
		return nil, err
	}
	if result.Rows, err = s.loadRows(ctx, collectedFor); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Store) loadMasters(ctx context.Context, collectedFor string) ([]model.MasterContext, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT mid_code, mid_name, expected_qty, ordinal, skipped
		FROM mid_categories WHERE collected_for = ? ORDER BY ordinal, mid_code`, collectedFor)
	if err != nil {
		return nil, fmt.Errorf("读取主行失败: %w", err)
	}
	defer rows.Close()

	var masters []model.MasterContext
	for rows.Next() {
		var m model.MasterContext
		if err := rows.Scan(&m.Code, &m.Name, &m.ExpectedAggregate, &m.Ordinal, &m.Skipped); err != nil {
			return nil, fmt.Errorf("读取主行失败: %w", err)
		}
		masters = append(masters, m)
	}
	return masters, rows.Err()
}

func (s *Store) loadRows(ctx context.Context, collectedFor string) ([]model.DetailRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT mid_code, mid_name, product_code, product_name, quantities_json
		FROM mid_sales WHERE collected_for = ? ORDER BY id`, collectedFor)
	if err != nil {
		return nil, fmt.Errorf("读取明细失败: %w", err)
	}
	defer rows.Close()

	var out []model.DetailRow
	for rows.Next() {
		var (
			r          model.DetailRow
			quantities string
		)
		if err := rows.Scan(&r.MasterCode, &r.MasterName, &r.ProductID, &r.ProductName, &quantities); err != nil {
			return nil, fmt.Errorf("读取明细失败: %w", err)
		}
		if err := json.Unmarshal([]byte(quantities), &r.Quantities); err != nil {
			return nil, fmt.Errorf("解析数值列失败: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ListDates 已保存的采集日期,最近的在前
func (s *Store) ListDates(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT collected_for FROM harvest_runs ORDER BY collected_for DESC`)
	if err != nil {
		return nil, fmt.Errorf("读取采集日期失败: %w", err)
	}
	defer rows.Close()

	var dates []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("读取采集日期失败: %w", err)
		}
		dates = append(dates, d)
	}
	return dates, rows.Err()
}

// timeLayout 定宽的纳秒时间,保证按文本排序与按时间排序一致
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("解析时间 %q 失败: %w", s, err)
	}
	return t, nil
}
