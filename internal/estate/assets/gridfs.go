package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const bucketName = "listing_images"

// GridFS keeps assets in a MongoDB GridFS bucket. Names are unique per
// Save; an existing object with the same name is replaced.
type GridFS struct {
	client *mongo.Client
	bucket *gridfs.Bucket
}

type gridFile struct {
	ID         any       `bson:"_id"`
	Name       string    `bson:"filename"`
	Length     int64     `bson:"length"`
	UploadDate time.Time `bson:"uploadDate"`
}

// NewGridFS connects to uri and opens the bucket in database.
func NewGridFS(ctx context.Context, uri, database string) (*GridFS, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	bucket, err := gridfs.NewBucket(client.Database(database), options.GridFSBucket().SetName(bucketName))
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("open gridfs bucket: %w", err)
	}

	return &GridFS{client: client, bucket: bucket}, nil
}

func (g *GridFS) Save(ctx context.Context, name string, r io.Reader) error {
	if !ValidName(name) {
		return ErrInvalidName
	}

	previous, err := g.find(ctx, bson.D{{Key: "filename", Value: name}})
	if err != nil {
		return err
	}

	stream, err := g.bucket.OpenUploadStream(name)
	if err != nil {
		return err
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = stream.SetWriteDeadline(deadline)
	}

	if _, err := io.Copy(stream, r); err != nil {
		_ = stream.Abort()
		return err
	}
	if err := stream.Close(); err != nil {
		return err
	}

	for _, f := range previous {
		if err := g.bucket.DeleteContext(ctx, f.ID); err != nil && !errors.Is(err, gridfs.ErrFileNotFound) {
			return err
		}
	}
	return nil
}

func (g *GridFS) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if !ValidName(name) {
		return nil, ErrInvalidName
	}

	stream, err := g.bucket.OpenDownloadStreamByName(name)
	if errors.Is(err, gridfs.ErrFileNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = stream.SetReadDeadline(deadline)
	}
	return stream, nil
}

func (g *GridFS) Remove(ctx context.Context, name string) error {
	if !ValidName(name) {
		return ErrInvalidName
	}

	files, err := g.find(ctx, bson.D{{Key: "filename", Value: name}})
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return ErrNotFound
	}

	for _, f := range files {
		if err := g.bucket.DeleteContext(ctx, f.ID); err != nil && !errors.Is(err, gridfs.ErrFileNotFound) {
			return err
		}
	}
	return nil
}

func (g *GridFS) List(ctx context.Context) ([]Object, error) {
	files, err := g.find(ctx, bson.D{})
	if err != nil {
		return nil, err
	}

	objects := make([]Object, 0, len(files))
	for _, f := range files {
		objects = append(objects, Object{Name: f.Name, Size: f.Length, ModTime: f.UploadDate})
	}
	return objects, nil
}

func (g *GridFS) find(ctx context.Context, filter bson.D) ([]gridFile, error) {
	cursor, err := g.bucket.FindContext(ctx, filter)
	if err != nil {
		return nil, err
	}

	var files []gridFile
	if err := cursor.All(ctx, &files); err != nil {
		return nil, err
	}
	return files, nil
}

func (g *GridFS) Check(ctx context.Context) error {
	return g.client.Ping(ctx, readpref.Primary())
}

func (g *GridFS) Close(ctx context.Context) error {
	return g.client.Disconnect(ctx)
}
