package device

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/gosimple/slug"
	. "github.com/weberc2/blockfs/pkg/types"
)

// PostgresDevice stores each block as a row keyed by volume name and block
// index.
type PostgresDevice struct {
	DB     *sql.DB
	Volume string
}

func NewPostgresDevice(db *sql.DB, name string) *PostgresDevice {
	return &PostgresDevice{DB: db, Volume: slug.Make(name)}
}

func (d *PostgresDevice) EnsureTable() error {
	if _, err := d.DB.Exec(
		"CREATE TABLE IF NOT EXISTS blockfs_blocks (" +
			"volume VARCHAR(255) NOT NULL, " +
			"block BIGINT NOT NULL, " +
			"data BYTEA NOT NULL, " +
			"PRIMARY KEY (volume, block))",
	); err != nil {
		return fmt.Errorf("creating `blockfs_blocks` postgres table: %w", err)
	}
	return nil
}

func (d *PostgresDevice) ReadBlock(b Block, p *[BlockSize]byte) error {
	var data []byte
	if err := d.DB.QueryRow(
		"SELECT data FROM blockfs_blocks WHERE volume = $1 AND block = $2",
		d.Volume,
		int64(b),
	).Scan(&data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			*p = [BlockSize]byte{}
			return nil
		}
		return fmt.Errorf(
			"reading block `%d` of volume `%s`: %w",
			b,
			d.Volume,
			err,
		)
	}
	if Byte(len(data)) != BlockSize {
		return fmt.Errorf(
			"reading block `%d` of volume `%s`: wanted `%d` bytes; found `%d`",
			b,
			d.Volume,
			BlockSize,
			len(data),
		)
	}
	copy(p[:], data)
	return nil
}

func (d *PostgresDevice) WriteBlock(b Block, p *[BlockSize]byte) error {
	if _, err := d.DB.Exec(
		"INSERT INTO blockfs_blocks (volume, block, data) "+
			"VALUES($1, $2, $3) "+
			"ON CONFLICT (volume, block) DO UPDATE SET data = EXCLUDED.data",
		d.Volume,
		int64(b),
		p[:],
	); err != nil {
		return fmt.Errorf(
			"writing block `%d` of volume `%s`: %w",
			b,
			d.Volume,
			err,
		)
	}
	return nil
}

// Sync is a no-op: every statement runs in its own committed transaction.
func (d *PostgresDevice) Sync() error { return nil }

func (d *PostgresDevice) Wipe() error {
	if _, err := d.DB.Exec(
		"DELETE FROM blockfs_blocks WHERE volume = $1",
		d.Volume,
	); err != nil {
		return fmt.Errorf("wiping volume `%s`: %w", d.Volume, err)
	}
	return nil
}
