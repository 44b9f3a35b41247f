// Copyright 2023 uhppoted@twyst.co.za. All rights reserved.
// Use of this source code is governed by an MIT-style license
// that can be found in the LICENSE file.

/*
Package dailyplan displays the daily shift plan kept in a shared Excel workbook as a slideshow.

dailyplan downloads the workbook from SharePoint, Google Drive or Google Sheets (or reads it from a
local file), renders a cell range from each of the shift worksheets to a PNG image and serves the
images as a web page that cycles through the shifts. It is intended to run unattended behind a wall
display.

dailyplan supports the following commands:

  - serve, to run the slideshow web server
  - render, to render a single worksheet range to a PNG file
  - get, to download the workbook (or a worksheet range as a TSV file)
  - authorise, to authorise access to the workbook on Google Drive or Google Sheets
  - version, to display the version
*/
package dailyplan
