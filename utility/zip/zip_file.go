package zip

import (
	"archive/zip"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ZipFiles deflates sources into one archive beside the first of them,
// named after it with a .zip extension. It returns the archive path and size.
func ZipFiles(sources []string) (string, int64, error) {
	if len(sources) == 0 {
		return "", 0, errors.New("no files to zip")
	}
	target := strings.TrimSuffix(sources[0], filepath.Ext(sources[0])) + ".zip"
	zipFile, err := os.Create(target)
	if err != nil {
		return target, 0, err
	}
	defer zipFile.Close()
	zipWriter := zip.NewWriter(zipFile)
	for _, source := range sources {
		err = addFile(zipWriter, source)
		if err != nil {
			_ = zipWriter.Close()
			return target, 0, err
		}
	}
	err = zipWriter.Close()
	if err != nil {
		return target, 0, err
	}
	info, err := zipFile.Stat()
	if err != nil {
		return target, 0, err
	}
	return target, info.Size(), nil
}

func addFile(zipWriter *zip.Writer, source string) error {
	file, err := os.Open(source)
	if err != nil {
		return err
	}
	defer file.Close()
	info, err := file.Stat()
	if err != nil {
		return err
	}
	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	header.Name = info.Name()
	header.Method = zip.Deflate
	writer, err := zipWriter.CreateHeader(header)
	if err != nil {
		return err
	}
	_, err = io.Copy(writer, file)
	return err
}
