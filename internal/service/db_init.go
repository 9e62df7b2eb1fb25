// file: internal/service/db_init.go
package service

import (
	"database/sql"
	"fmt"
	"log"
)

// InitPlatformTables 负责在系统启动时，检查并创建所有平台级的系统管理表。
func InitPlatformTables(db *sql.DB) error {
	if err := initUserTable(db); err != nil {
		return fmt.Errorf("初始化用户表失败: %w", err)
	}
	if err := initLocalAccountTable(db); err != nil {
		return fmt.Errorf("初始化本地账户表失败: %w", err)
	}
	if err := initSchemaSnapshotTable(db); err != nil {
		return fmt.Errorf("初始化结构快照表失败: %w", err)
	}

	log.Println("✅ 数据库: 所有系统表结构初始化/检查完成。")
	return nil
}

// initUserTable 创建用户表
func initUserTable(db *sql.DB) error {
	query := `
    CREATE TABLE IF NOT EXISTS _user(
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        username TEXT UNIQUE NOT NULL,
        password_hash TEXT NOT NULL,
        role TEXT NOT NULL
    );`
	_, err := db.Exec(query)
	if err != nil {
		return fmt.Errorf("创建 '_user' 表失败: %w", err)
	}
	// 为常用查询创建索引
	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_user_username ON _user (username);`)
	return err
}

// initLocalAccountTable 创建本地账户表。
// 间接查找列 (ExternalId) 通过 external_login 字段与这张表关联。
func initLocalAccountTable(db *sql.DB) error {
	query := `
    CREATE TABLE IF NOT EXISTS local_accounts(
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        external_login TEXT UNIQUE NOT NULL,
        display_name TEXT NOT NULL DEFAULT ''
    );`
	if _, err := db.Exec(query); err != nil {
		return fmt.Errorf("创建 'local_accounts' 表失败: %w", err)
	}
	_, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_local_accounts_login ON local_accounts (external_login);`)
	return err
}

// initSchemaSnapshotTable 创建结构快照表，"校验并同步" 动作的持久化落点。
func initSchemaSnapshotTable(db *sql.DB) error {
	query := `
    CREATE TABLE IF NOT EXISTS schema_snapshots(
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        source TEXT NOT NULL,
        payload TEXT NOT NULL,
        created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
    );`
	_, err := db.Exec(query)
	if err != nil {
		return fmt.Errorf("创建 'schema_snapshots' 表失败: %w", err)
	}
	return nil
}
