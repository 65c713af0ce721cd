package main

import (
	"net/http"

	"github.com/tobsdb/tdblite/internal/conn"
	"github.com/tobsdb/tdblite/internal/parser"
	"github.com/tobsdb/tdblite/internal/query"
	"github.com/tobsdb/tdblite/internal/schema"
	"github.com/tobsdb/tdblite/internal/types"
	"github.com/tobsdb/tdblite/pkg/client"
)

// Runner runs one parsed command line, either in process or on a server.
type Runner interface {
	Run(line string, op parser.Operation, confirm conn.Confirmer) conn.Response
	// TableColumns orders SELECT output; ID first.
	TableColumns(table string) ([]string, error)
}

type localRunner struct{ session *conn.Session }

func (r localRunner) Run(_ string, op parser.Operation, confirm conn.Confirmer) conn.Response {
	return r.session.Run(op, confirm)
}

func (r localRunner) TableColumns(table string) ([]string, error) {
	return r.session.TableColumns(table)
}

// remoteRunner asks for confirmation locally and sends the line as typed.
// Response data is decoded back into the types the renderer knows.
type remoteRunner struct{ client *client.Client }

func (r remoteRunner) Run(line string, op parser.Operation, confirm conn.Confirmer) conn.Response {
	confirmed := true
	if op.Kind().IsDestructive() && confirm != nil {
		confirmed = confirm(op)
		if !confirmed {
			return conn.NewErrorResponse(conn.StatusCancelled, "Operation cancelled")
		}
	}

	res, err := r.client.Exec(line, confirmed)
	if err != nil {
		return conn.NewErrorResponse(http.StatusBadGateway, err.Error())
	}
	if !res.Ok() {
		return res
	}

	switch op.Kind() {
	case parser.OpSelect:
		records, err := client.DecodeData[[]types.Record](res)
		if err != nil {
			return conn.ErrorResponse(err)
		}
		if t_schema, err := r.tableSchema(op.TableName()); err == nil {
			for _, rec := range records {
				t_schema.NormalizeRecord(rec)
			}
		}
		res.Data = records
	case parser.OpList:
		res.Data, err = client.DecodeData[[]string](res)
	case parser.OpInfo:
		res.Data, err = client.DecodeData[*schema.TableInfo](res)
	case parser.OpUpdate, parser.OpDelete:
		res.Data, err = client.DecodeData[*query.Result](res)
	}
	if err != nil {
		return conn.ErrorResponse(err)
	}
	return res
}

func (r remoteRunner) tableSchema(table string) (*schema.TableSchema, error) {
	res, err := r.client.Exec("INFO "+table, false)
	if err != nil {
		return nil, err
	}
	if !res.Ok() {
		return nil, conn.ResponseError(res)
	}
	info, err := client.DecodeData[*schema.TableInfo](res)
	if err != nil {
		return nil, err
	}
	return &schema.TableSchema{Columns: info.Columns, PrimaryKey: info.PrimaryKey}, nil
}

func (r remoteRunner) TableColumns(table string) ([]string, error) {
	t_schema, err := r.tableSchema(table)
	if err != nil {
		return nil, err
	}
	return t_schema.ColumnNames(), nil
}
